package viewmodel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"eip-explainer/internal/domain"
)

func TestModel_FullFlow(t *testing.T) {
	m := New()
	require.Equal(t, ViewInput, m.View())

	require.NoError(t, m.Submit(" 1559 "))
	require.Equal(t, ViewModeSelect, m.View())
	require.Equal(t, "1559", m.Number())
	require.Equal(t, "EIP-1559", m.TopicTitle())

	require.NoError(t, m.SelectMode(domain.ModeTechnical))
	require.Equal(t, ViewExplanation, m.View())
	require.Equal(t, domain.ModeTechnical, m.Mode())

	m.Back()
	require.Equal(t, ViewModeSelect, m.View())
	require.Equal(t, domain.Mode(0), m.Mode())

	m.Back()
	require.Equal(t, ViewInput, m.View())
	require.Empty(t, m.Number())

	m.Back()
	require.Equal(t, ViewInput, m.View())
}

func TestModel_SubmitRejectsNonPositive(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-4", "1.5", "15 59"} {
		m := New()
		require.ErrorIs(t, m.Submit(in), ErrInvalidNumber, in)
		require.Equal(t, ViewInput, m.View())
	}
}

func TestModel_SubmitNormalizesLeadingZeros(t *testing.T) {
	m := New()
	require.NoError(t, m.Submit("0020"))
	require.Equal(t, "20", m.Number())
}

func TestModel_ActionsOutsideTheirView(t *testing.T) {
	m := New()
	require.ErrorIs(t, m.SelectMode(domain.ModeSimple), ErrWrongView)

	require.NoError(t, m.Submit("20"))
	require.ErrorIs(t, m.Submit("21"), ErrWrongView)
	require.Error(t, m.SelectMode(domain.Mode(9)))
	require.Equal(t, ViewModeSelect, m.View())
}

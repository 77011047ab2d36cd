package statecodec

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"eip-explainer/internal/domain"
)

func TestEncode_OmitsEmptyFields(t *testing.T) {
	require.JSONEq(t, `{"stage":"AwaitingTopic"}`, Encode(domain.StartState()))
	require.JSONEq(t,
		`{"stage":"AwaitingMode","topicId":"1559","resolvedContent":"body"}`,
		Encode(domain.ModeSelectState("1559", "body")),
	)
}

func TestRoundTrip(t *testing.T) {
	states := []domain.InteractionState{
		domain.StartState(),
		domain.ModeSelectState("1559", "---\neip: 1559\ntitle: \"Fee market\" <b>&</b>\n---\n"),
		{Stage: domain.StageDone, TopicID: "20"},
	}
	for _, want := range states {
		got, err := Parse(json.RawMessage(Encode(want)))
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestRoundTrip_ThroughEchoedString(t *testing.T) {
	want := domain.ModeSelectState("4844", "blob transactions")
	echoed := strconv.Quote(Encode(want))

	got := Decode(json.RawMessage(echoed))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("echoed state mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_FailsOpenToStart(t *testing.T) {
	cases := map[string]string{
		"absent":          ``,
		"null":            `null`,
		"blank":           `   `,
		"empty object":    `{}`,
		"garbage":         `{"stage":`,
		"number":          `42`,
		"array":           `["AwaitingMode"]`,
		"unknown stage":   `{"stage":"Somewhere"}`,
		"stage not str":   `{"stage":3}`,
		"topic not str":   `{"stage":"AwaitingMode","topicId":1559,"resolvedContent":"x"}`,
		"content not str": `{"stage":"AwaitingMode","topicId":"1559","resolvedContent":{"a":1}}`,
		"empty string":    `""`,
		"string garbage":  `"not json"`,
		"string broken":   `"{\"stage\":"`,
		"unknown page":    `{"page":"explanation"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, domain.StartState(), Decode(json.RawMessage(raw)))
			_, err := Parse(json.RawMessage(raw))
			require.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestParse_LegacyKeys(t *testing.T) {
	got, err := Parse(json.RawMessage(`{"page":"mode-select","eip":"1559","content":"text"}`))
	require.NoError(t, err)
	require.Equal(t, domain.ModeSelectState("1559", "text"), got)

	got, err = Parse(json.RawMessage(`{"page":"input"}`))
	require.NoError(t, err)
	require.Equal(t, domain.StartState(), got)
}

func TestParse_KeepsInconsistentShapesForTheStateMachine(t *testing.T) {
	got, err := Parse(json.RawMessage(`{"stage":"AwaitingMode","topicId":"1559"}`))
	require.NoError(t, err)
	require.Equal(t, domain.StageAwaitingMode, got.Stage)
	require.False(t, got.Consistent())
}

package roulette

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWagers(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []Wager
	}{
		{
			"color aliases",
			[]string{"red", "black", "r", "b"},
			[]Wager{
				{Kind: KindColor, Stake: 10, Color: ColorRed, Label: "RED"},
				{Kind: KindColor, Stake: 10, Color: ColorBlack, Label: "BLACK"},
				{Kind: KindColor, Stake: 10, Color: ColorRed, Label: "RED"},
				{Kind: KindColor, Stake: 10, Color: ColorBlack, Label: "BLACK"},
			},
		},
		{
			"zero aliases admit a number bet on 0",
			[]string{"zero", "green", "0"},
			[]Wager{
				{Kind: KindNumber, Stake: 10, Value: 0, Label: "ZERO"},
				{Kind: KindNumber, Stake: 10, Value: 0, Label: "ZERO"},
				{Kind: KindNumber, Stake: 10, Value: 0, Label: "ZERO"},
			},
		},
		{
			"exact numbers inside 1-36",
			[]string{"1", "36"},
			[]Wager{
				{Kind: KindNumber, Stake: 10, Value: 1, Label: "1"},
				{Kind: KindNumber, Stake: 10, Value: 36, Label: "36"},
			},
		},
		{
			"range sorted and kept inclusive",
			[]string{"18-1", "0-36"},
			[]Wager{
				{Kind: KindRange, Stake: 10, Low: 1, High: 18, Label: "1-18"},
				{Kind: KindRange, Stake: 10, Low: 0, High: 36, Label: "0-36"},
			},
		},
		{
			"garbage tokens are silently dropped",
			[]string{"hello", "37", "-5", "1-99", "3-", "--", "7"},
			[]Wager{
				{Kind: KindNumber, Stake: 10, Value: 7, Label: "7"},
			},
		},
		{
			"all garbage parses to nothing",
			[]string{"hello", "world", "99"},
			nil,
		},
		{
			"mixed case and whitespace",
			[]string{" RED ", "Black"},
			[]Wager{
				{Kind: KindColor, Stake: 10, Color: ColorRed, Label: "RED"},
				{Kind: KindColor, Stake: 10, Color: ColorBlack, Label: "BLACK"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseWagers(tt.tokens, 10)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWagersCapsBatch(t *testing.T) {
	tokens := make([]string, 150)
	for i := range tokens {
		tokens[i] = strconv.Itoa(i%36 + 1)
	}

	got := ParseWagers(tokens, 5)
	require.Len(t, got, MaxTokensPerMessage, "excess tokens must be discarded before parsing")
}

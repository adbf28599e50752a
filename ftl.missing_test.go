package ftl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseMissingStrategy(t *testing.T) {
	tests := []struct {
		name string
		want MissingStrategy
	}{
		{name: "", want: MissingStrategyThrow},
		{name: "throw", want: MissingStrategyThrow},
		{name: "remove", want: MissingStrategyRemove},
		{name: " Comment ", want: MissingStrategyComment},
		{name: "LOG", want: MissingStrategyLog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMissingStrategy(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseMissingStrategy("explode")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}

func TestMissingStrategy_String(t *testing.T) {
	assert.Equal(t, "throw", MissingStrategyThrow.String())
	assert.Equal(t, "remove", MissingStrategyRemove.String())
	assert.Equal(t, "comment", MissingStrategyComment.String())
	assert.Equal(t, "log", MissingStrategyLog.String())
	assert.Equal(t, "MissingStrategy(9)", MissingStrategy(9).String())
}

func TestMissingStrategyLog(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := MustNew(WithLogger(zap.New(core)), WithMissingStrategy(MissingStrategyLog))

	out, err := e.Render(context.Background(), "a<t:ghost/>b")
	require.NoError(t, err)
	assert.Equal(t, "ab", out)

	entries := logs.FilterMessage(LogMsgTagMissing).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ghost", entries[0].ContextMap()[LogFieldTag])
}

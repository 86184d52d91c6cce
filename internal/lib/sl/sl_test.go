package sl_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := sl.Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.Panics(t, func() {
		_ = sl.Err(nil)
	})
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "john.doe@example.com", want: "jo***@example.com"},
		{in: "ab@example.com", want: "***@example.com"},
		{in: "not-an-email", want: "***@***"},
		{in: "trailing@", want: "***@***"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sl.RedactEmail(tt.in))
		})
	}
}

func TestEmail_Attr(t *testing.T) {
	attr := sl.Email("john.doe@example.com")
	assert.Equal(t, "email", attr.Key)
	assert.Equal(t, "jo***@example.com", attr.Value.String())
}

func TestSetupLogger_Levels(t *testing.T) {
	ctx := context.Background()
	assert.True(t, sl.SetupLogger("local").Enabled(ctx, slog.LevelDebug))
	assert.True(t, sl.SetupLogger("dev").Enabled(ctx, slog.LevelDebug))
	assert.False(t, sl.SetupLogger("prod").Enabled(ctx, slog.LevelDebug))
	assert.False(t, sl.SetupLogger("unknown").Enabled(ctx, slog.LevelDebug))
}

package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pagewright/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.With(context.Background(), logger)

	t.Run("logs the error", func(t *testing.T) {
		buf.Reset()
		errutil.Handle(ctx, errors.New("publish failed"), "deployment failed")
		gt.String(t, buf.String()).Contains("deployment failed")
		gt.String(t, buf.String()).Contains("publish failed")
	})

	t.Run("ignores nil", func(t *testing.T) {
		buf.Reset()
		errutil.Handle(ctx, nil, "nothing")
		gt.Value(t, buf.String()).Equal("")
	})
}

// This package contains tests intended to be used by the implementations of
// the Generator interface
package models

import (
	"context"
	"testing"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func Generator_Context_Test(t *testing.T, g Generator) {
	testboil.ReturnsOnContextCancel(t, func(ctx context.Context) {
		g.Generate(ctx, []Message{{Role: "user", Content: "hello"}})
	}, time.Second)
}

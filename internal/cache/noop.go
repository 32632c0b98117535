package cache

import (
	"context"
	"time"

	"github.com/npri-watch/npri-api/internal/constants"
)

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Name() string                                             { return constants.CacheDriverNone }
func (Noop) Close() error                                             { return nil }

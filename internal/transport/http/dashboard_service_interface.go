package http

import (
	"context"
	"io"
)

// DashboardRenderer renders the dashboard page
type DashboardRenderer interface {
	Render(ctx context.Context, w io.Writer, source string) error
}

package browser

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Connect attaches chromedp to a remote session. The returned context drives
// the remote browser, cancel closes the connection.
func Connect(ctx context.Context, session Session) (context.Context, context.CancelFunc) {
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, session.BrowserWSEndpoint, chromedp.NoModifyURL)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

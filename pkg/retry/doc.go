// Package retry provides backoff strategies, a generic retry loop and
// bounded polling for asynchronous remote operations such as the Yandex.Disk
// copy-from-URL job.
//
//	err := retry.Poll(ctx, cfg.Polling, log, func(ctx context.Context) (bool, error) {
//		status, err := client.Status(ctx, href)
//		if err != nil {
//			return false, err
//		}
//		return status != "in-progress", nil
//	})
package retry

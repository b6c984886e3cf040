package a

import "context"

type LiveQuery struct{}

func (q *LiveQuery) Mutate(ctx context.Context, op string, fn func(context.Context) error) error {
	return fn(ctx)
}

func (q *LiveQuery) Refresh(ctx context.Context) error { return nil }

func save(context.Context, string) error { return nil }

func bad(ctx context.Context, values []string, q *LiveQuery) {
	for _, v := range values {
		_ = q.Mutate(ctx, "saving", func(ctx context.Context) error { // want "Mutate called inside loop"
			return save(ctx, v)
		})
	}
	for i := 0; i < 3; i++ {
		_ = q.Refresh(ctx) // want "Refresh called inside loop"
	}
}

func good(ctx context.Context, values []string, q *LiveQuery) {
	_ = q.Mutate(ctx, "saving", func(ctx context.Context) error {
		for _, v := range values {
			if err := save(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func goodGoroutines(ctx context.Context, values []string, q *LiveQuery) {
	for range values {
		go func() {
			_ = q.Refresh(ctx)
		}()
	}
}

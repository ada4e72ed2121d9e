// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mount

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Invocation is a single call of a declared method.
type Invocation struct {
	Target any
	Method any
	Args   []any
}

// DoAll performs every invocation like [Service.Do] with at most limit
// requests in flight. A limit of zero or less does not bound them.
//
// The responses are in the order of invs. The first failure cancels
// the context of the remaining requests and is returned along with
// the responses received so far.
func (s *Service) DoAll(ctx context.Context, limit int, invs ...Invocation) ([]*Response, error) {
	resps := make([]*Response, len(invs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, inv := range invs {
		g.Go(func() error {
			resp, err := s.Do(gctx, inv.Target, inv.Method, inv.Args...)
			resps[i] = resp
			return err
		})
	}
	return resps, g.Wait()
}

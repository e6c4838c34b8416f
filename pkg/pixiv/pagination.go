package pixiv

import (
	"context"
)

// Page represents one page of a list response. NextURL is the opaque
// cursor the service returned; it is replayed verbatim to fetch the
// following page and its internal structure is never inspected. An empty
// NextURL is the sole termination signal; an empty Items slice alone
// does not end pagination, since the service returns empty intermediate
// pages for some endpoints.
type Page[T any] struct {
	Items   []T
	NextURL string
}

// FetchFunc fetches one page. An empty cursor requests the initial page;
// otherwise cursor is the NextURL of the page before it.
type FetchFunc[T any] func(ctx context.Context, cursor string) (*Page[T], error)

// PaginationOptions bounds a traversal. Zero values mean unbounded; the
// iterator itself imposes no page cap.
type PaginationOptions struct {
	// MaxItems stops iteration after this many items have been yielded.
	MaxItems int

	// MaxPages stops iteration after this many pages have been fetched.
	MaxPages int
}

// PageIterator lazily walks a cursor-paginated endpoint. Traversal is
// strictly forward; restarting means constructing a new iterator, which
// re-issues the initial request. A fetch failure surfaces at the pull
// that hit it and items yielded before the failure remain valid.
type PageIterator[T any] struct {
	ctx     context.Context
	fetch   FetchFunc[T]
	opts    PaginationOptions
	buffer  []T
	cursor  string
	started bool
	done    bool
	err     error
	yielded int
	pages   int
}

// NewPageIterator creates an iterator over a cursor-paginated endpoint.
func NewPageIterator[T any](ctx context.Context, fetch FetchFunc[T], opts *PaginationOptions) *PageIterator[T] {
	it := &PageIterator[T]{
		ctx:   ctx,
		fetch: fetch,
	}

	if opts != nil {
		it.opts = *opts
	}

	if fetch == nil {
		it.err = ErrNilFetchFunc
	}

	return it
}

// fill fetches pages until the buffer holds at least one item, the
// endpoint is exhausted, a guard trips, or a fetch fails.
func (it *PageIterator[T]) fill() {
	for len(it.buffer) == 0 && !it.done && it.err == nil {
		if it.fetch == nil {
			it.err = ErrNilFetchFunc
			return
		}

		if it.started && it.cursor == "" {
			it.done = true
			return
		}

		if it.opts.MaxPages > 0 && it.pages >= it.opts.MaxPages {
			it.done = true
			return
		}

		page, err := it.fetch(it.ctx, it.cursor)
		if err != nil {
			it.err = err
			return
		}

		it.started = true
		it.pages++
		it.cursor = page.NextURL
		it.buffer = append(it.buffer, page.Items...)
	}
}

// HasNext reports whether another item is available. It may fetch pages
// to find out. A pending fetch error also reports true so the caller
// observes it from Next.
func (it *PageIterator[T]) HasNext() bool {
	if it.opts.MaxItems > 0 && it.yielded >= it.opts.MaxItems {
		return false
	}

	it.fill()

	return len(it.buffer) > 0 || it.err != nil
}

// Next returns the next item. It returns ErrNoMoreItems once the
// endpoint and buffer are exhausted.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if it.opts.MaxItems > 0 && it.yielded >= it.opts.MaxItems {
		return zero, ErrNoMoreItems
	}

	it.fill()

	if it.err != nil {
		err := it.err
		it.err = nil

		return zero, err
	}

	if len(it.buffer) == 0 {
		return zero, ErrNoMoreItems
	}

	item := it.buffer[0]
	it.buffer = it.buffer[1:]
	it.yielded++

	return item, nil
}

// All drains the iterator and returns every remaining item.
func (it *PageIterator[T]) All() ([]T, error) {
	var items []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach applies fn to every remaining item, stopping at the first
// error from fn or from a page fetch.
func (it *PageIterator[T]) ForEach(fn func(item T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		if err := fn(item); err != nil {
			return err
		}
	}

	return nil
}

// FetchAllPages fetches every page and returns the concatenated items.
func FetchAllPages[T any](ctx context.Context, fetch FetchFunc[T], opts *PaginationOptions) ([]T, error) {
	return NewPageIterator(ctx, fetch, opts).All()
}

// PageResult is one page delivered by StreamPages.
type PageResult[T any] struct {
	Items []T
	Err   error
}

// StreamPages fetches pages in a goroutine and delivers each one on the
// returned channel. The channel is closed after the last page, the first
// error, or context cancellation; an error is delivered as the final
// result. When MaxItems is set, the page that crosses it is clipped to
// the remaining allowance and the stream ends.
func StreamPages[T any](ctx context.Context, fetch FetchFunc[T], opts *PaginationOptions) <-chan PageResult[T] {
	results := make(chan PageResult[T])

	go func() {
		defer close(results)

		var (
			cursor  string
			started bool
			pages   int
			yielded int
		)

		for {
			if started && cursor == "" {
				return
			}

			if opts != nil && opts.MaxPages > 0 && pages >= opts.MaxPages {
				return
			}

			if opts != nil && opts.MaxItems > 0 && yielded >= opts.MaxItems {
				return
			}

			page, err := fetch(ctx, cursor)
			if err != nil {
				select {
				case results <- PageResult[T]{Err: err}:
				case <-ctx.Done():
				}

				return
			}

			started = true
			pages++
			cursor = page.NextURL

			items := page.Items
			if opts != nil && opts.MaxItems > 0 && yielded+len(items) > opts.MaxItems {
				items = items[:opts.MaxItems-yielded]
			}

			yielded += len(items)

			select {
			case results <- PageResult[T]{Items: items}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}

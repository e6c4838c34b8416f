// Package pixiv provides the public types and interfaces for the Pixiv
// AppAPI client.
//
// The package defines:
//
//   - The Client interface and Config struct used to construct clients
//     (see the pixivclient package for the concrete constructor).
//   - Domain records (User, Illust, Novel, Comment, ...) decoded and
//     validated from API responses.
//   - The error taxonomy: TransportError, AuthError, APIError, and
//     DecodeError, with errors.As-friendly helpers.
//   - Cursor pagination: Page[T], PageIterator[T], FetchAllPages, and
//     StreamPages. Pixiv list endpoints return an opaque "next_url" which
//     the iterator replays verbatim until the service stops returning one.
//   - Request/response interceptors for logging and event observation.
//
// Basic usage:
//
//	client, err := pixivclient.New(ctx, &pixiv.Config{
//	    RefreshToken: os.Getenv("PIXIV_REFRESH_TOKEN"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	illust, err := client.Illusts().Detail(ctx, 129899459)
//
// List endpoints come in paged and iterator forms:
//
//	it := client.Illusts().SearchIter(ctx, "風景", nil)
//	for it.HasNext() {
//	    illust, err := it.Next()
//	    ...
//	}
package pixiv

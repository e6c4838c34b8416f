// Package pixivclient provides the primary entry point for constructing a
// Pixiv AppAPI client that implements the pixiv.Client interface.
//
// It layers configuration, HTTP transport, and authentication on top of the
// types defined in the pixiv package. Most applications should import
// pixivclient to build a client, then use the returned pixiv.Client to
// access resource clients, for example Illusts(), Novels(), Users().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/komorebi-io/pixiv-client/pkg/pixiv"
//	  "github.com/komorebi-io/pixiv-client/pkg/pixivclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := pixivclient.New(ctx, &pixiv.Config{
//	    RefreshToken: "...", // obtained once via an interactive login
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  illust, err := cli.Illusts().Detail(ctx, 129899459)
//	  if err != nil { log.Fatal(err) }
//	  _ = illust
//	}
//
// # Helpers
//
// The package also provides NewWithRefreshToken and NewWithPassword, which
// wrap New with the appropriate configuration, and NewZerologAdapter for
// plugging a zerolog logger into Config.Logger.
package pixivclient

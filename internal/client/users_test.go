package client

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

func TestUsersClient_Detail(t *testing.T) {
	t.Parallel()

	as := newAppServer(t)
	as.serve("/v1/user/detail", `{
		"user": {"id": 5, "name": "artist", "account": "artist", "profile_image_urls": {"medium": "m"}},
		"profile": {"total_illusts": 120, "total_follow_users": 30, "is_premium": true},
		"workspace": {"pc": "workstation"}
	}`)

	client := newTestClient(as)

	detail, err := client.Users().Detail(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), detail.User.ID)
	assert.Equal(t, 120, detail.Profile.TotalIllusts)
	assert.True(t, detail.Profile.IsPremium)
	assert.Equal(t, "workstation", detail.Workspace.PC)
	assert.Equal(t, "5", as.last().Query["user_id"])
}

func TestUsersClient_Illusts(t *testing.T) {
	t.Parallel()

	as := newAppServer(t)
	as.serve("/v1/user/illusts", fmt.Sprintf(
		`{"illusts": [%s], "next_url": ""}`, illustJSON(1, "work")))

	client := newTestClient(as)

	page, err := client.Users().Illusts(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "5", as.last().Query["user_id"])
}

func TestUsersClient_Novels(t *testing.T) {
	t.Parallel()

	as := newAppServer(t)
	as.serve("/v1/user/novels", fmt.Sprintf(
		`{"novels": [%s], "next_url": ""}`, novelJSON(7, "story")))

	client := newTestClient(as)

	page, err := client.Users().Novels(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestUsersClient_Bookmarks(t *testing.T) {
	t.Parallel()

	t.Run("defaults to public restrict", func(t *testing.T) {
		t.Parallel()

		as := newAppServer(t)
		as.serve("/v1/user/bookmarks/illust", `{"illusts": [], "next_url": ""}`)

		client := newTestClient(as)

		_, err := client.Users().Bookmarks(context.Background(), 5, nil)
		require.NoError(t, err)

		last := as.last()
		assert.Equal(t, "public", last.Query["restrict"])
		assert.Equal(t, "5", last.Query["user_id"])
	})

	t.Run("private restrict passes through", func(t *testing.T) {
		t.Parallel()

		as := newAppServer(t)
		as.serve("/v1/user/bookmarks/illust", `{"illusts": [], "next_url": ""}`)

		client := newTestClient(as)

		params := pixiv.NewQueryParams().WithRestrict(pixiv.RestrictPrivate)

		_, err := client.Users().Bookmarks(context.Background(), 5, params)
		require.NoError(t, err)
		assert.Equal(t, "private", as.last().Query["restrict"])
	})

	t.Run("iterator walks cursors", func(t *testing.T) {
		t.Parallel()

		as := newAppServer(t)
		client := newTestClient(as)

		as.serve("/v1/user/bookmarks/illust", fmt.Sprintf(
			`{"illusts": [%s], "next_url": "%s/v1/user/bookmarks/illust/page2?max_bookmark_id=88"}`,
			illustJSON(1, "a"), as.URL))
		as.serve("/v1/user/bookmarks/illust/page2", fmt.Sprintf(
			`{"illusts": [%s], "next_url": ""}`, illustJSON(2, "b")))

		items, err := client.Users().BookmarksIter(context.Background(), 5, nil).All()
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "88", as.last().Query["max_bookmark_id"])
	})
}

func TestUsersClient_Following(t *testing.T) {
	t.Parallel()

	as := newAppServer(t)
	as.serve("/v1/user/following", fmt.Sprintf(`{
		"user_previews": [
			{"user": {"id": 8, "name": "followed", "account": "followed"}, "illusts": [%s], "novels": []}
		],
		"next_url": ""
	}`, illustJSON(1, "sample")))

	client := newTestClient(as)

	page, err := client.Users().Following(context.Background(), 5, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(8), page.Items[0].User.ID)
	assert.Len(t, page.Items[0].Illusts, 1)
}

func TestUsersClient_Search(t *testing.T) {
	t.Parallel()

	as := newAppServer(t)
	as.serve("/v1/search/user", `{
		"user_previews": [
			{"user": {"id": 9, "name": "hit", "account": "hit"}, "illusts": [], "novels": []}
		],
		"next_url": ""
	}`)

	client := newTestClient(as)

	page, err := client.Users().Search(context.Background(), "hit", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "hit", as.last().Query["word"])
}

func TestUsersClient_FollowUnfollow(t *testing.T) {
	t.Parallel()

	t.Run("follow sends form with default restrict", func(t *testing.T) {
		t.Parallel()

		as := newAppServer(t)
		client := newTestClient(as)

		err := client.Users().Follow(context.Background(), 8, "")
		require.NoError(t, err)

		last := as.last()
		assert.Equal(t, "/v1/user/follow/add", last.Path)
		assert.Equal(t, "8", last.Form["user_id"])
		assert.Equal(t, "public", last.Form["restrict"])
	})

	t.Run("unfollow sends form", func(t *testing.T) {
		t.Parallel()

		as := newAppServer(t)
		client := newTestClient(as)

		err := client.Users().Unfollow(context.Background(), 8)
		require.NoError(t, err)

		last := as.last()
		assert.Equal(t, "/v1/user/follow/delete", last.Path)
		assert.Equal(t, "8", last.Form["user_id"])
	})
}

package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialconnect/feed/internal/cache/memory"
	"github.com/socialconnect/feed/internal/entities"
)

type fakePages struct {
	calls []PageKey
	pages map[int]*entities.Page
	err   error
}

func (f *fakePages) Get(_ context.Context, key PageKey) (*entities.Page, error) {
	f.calls = append(f.calls, key)
	if f.err != nil {
		return nil, f.err
	}

	if p, ok := f.pages[key.Page]; ok {
		return p, nil
	}

	return &entities.Page{Items: []entities.FeedItem{}, Number: key.Page}, nil
}

func items(id ...entities.PostID) []entities.FeedItem {
	out := make([]entities.FeedItem, len(id))
	for i, v := range id {
		out[i] = entities.FeedItem{Post: entities.Post{ID: v}}
	}
	return out
}

func TestAccumulator_Initialize(t *testing.T) {
	f := &fakePages{pages: map[int]*entities.Page{
		1: {Items: items(5, 4, 3), HasMore: true},
	}}
	a := NewAccumulator("s", f)

	require.Equal(t, StateEmpty, a.State())
	require.Empty(t, a.Feed().Items)
	require.False(t, a.Feed().HasMore)

	feed, err := a.Initialize(context.Background(), HomeScope(1))
	require.NoError(t, err)
	assert.Equal(t, []entities.PostID{5, 4, 3}, ids(feed.Items))
	assert.True(t, feed.HasMore)
	assert.Equal(t, StateLoaded, a.State())
	assert.Equal(t, HomeScope(1), a.Scope())

	require.Len(t, f.calls, 1)
	assert.Equal(t, PageKey{Session: "s", Scope: HomeScope(1), Page: 1}, f.calls[0])
}

func TestAccumulator_LoadMore(t *testing.T) {
	f := &fakePages{pages: map[int]*entities.Page{
		1: {Items: items(9, 8, 7), HasMore: true},
		// 7 shifted onto the second page after a concurrent insert
		2: {Items: items(7, 6, 5), HasMore: true},
		3: {Items: items(4), HasMore: false},
	}}
	a := NewAccumulator("s", f)
	ctx := context.Background()

	_, err := a.Initialize(ctx, HomeScope(1))
	require.NoError(t, err)

	feed, err := a.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PostID{9, 8, 7, 6, 5}, ids(feed.Items))
	assert.True(t, feed.HasMore)

	feed, err = a.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PostID{9, 8, 7, 6, 5, 4}, ids(feed.Items))
	assert.False(t, feed.HasMore)

	// nothing more to load, pages are not requested
	feed, err = a.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PostID{9, 8, 7, 6, 5, 4}, ids(feed.Items))
	assert.Len(t, f.calls, 3)
	assert.Equal(t, 3, f.calls[2].Page)
}

func TestAccumulator_LoadMore_Token(t *testing.T) {
	f := &fakePages{pages: map[int]*entities.Page{
		1: {Items: items(9, 8, 7), HasMore: true, Next: "after-7"},
		2: {Items: items(6), HasMore: false},
	}}
	a := NewAccumulator("s", f)
	ctx := context.Background()

	_, err := a.Initialize(ctx, HomeScope(1))
	require.NoError(t, err)

	feed, err := a.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PostID{9, 8, 7, 6}, ids(feed.Items))

	require.Len(t, f.calls, 2)
	assert.Equal(t, PageKey{Session: "s", Scope: HomeScope(1), Page: 2, Token: "after-7"}, f.calls[1])
}

func TestAccumulator_LoadMore_AfterDelete(t *testing.T) {
	tt := []struct {
		name    string
		deleted entities.PostID
	}{
		{name: "head", deleted: 15},
		{name: "middle", deleted: 10},
		{name: "last_fetched", deleted: 6},
		{name: "next_page", deleted: 5},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			const v = 1

			g := newGraph(v)
			for id := entities.PostID(1); id <= 15; id++ {
				g.post(id, v, int64(id))
			}

			pc := NewPageCache(NewPlanner(g), memory.NewStorage(100), time.Minute)
			acc := NewAccumulator("s", pc)
			ctx := context.Background()

			feed, err := acc.Initialize(ctx, HomeScope(v))
			require.NoError(t, err)
			require.Len(t, feed.Items, entities.PageSize)
			require.True(t, feed.HasMore)

			g.remove(tc.deleted)
			require.NoError(t, pc.Invalidate(ctx, "s"))
			acc.RemovePost(tc.deleted)

			feed, err = acc.LoadMore(ctx)
			require.NoError(t, err)
			assert.False(t, feed.HasMore)

			var expected []entities.PostID
			for id := entities.PostID(15); id >= 1; id-- {
				if id != tc.deleted {
					expected = append(expected, id)
				}
			}
			assert.Equal(t, expected, ids(feed.Items))
		})
	}
}

func TestAccumulator_LoadMore_NotLoaded(t *testing.T) {
	f := &fakePages{}
	a := NewAccumulator("s", f)

	feed, err := a.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
	assert.Empty(t, f.calls)
	assert.Equal(t, StateEmpty, a.State())
}

func TestAccumulator_Failures(t *testing.T) {
	f := &fakePages{pages: map[int]*entities.Page{
		1: {Items: items(3, 2), HasMore: true},
	}}
	a := NewAccumulator("s", f)
	ctx := context.Background()

	f.err = errTest
	_, err := a.Initialize(ctx, HomeScope(1))
	require.Equal(t, errTest, err)
	require.Equal(t, StateEmpty, a.State())

	f.err = nil
	_, err = a.Initialize(ctx, HomeScope(1))
	require.NoError(t, err)

	f.err = errTest

	feed, err := a.LoadMore(ctx)
	require.Equal(t, errTest, err)
	assert.Equal(t, []entities.PostID{3, 2}, ids(feed.Items))
	assert.True(t, feed.HasMore)
	assert.Equal(t, StateLoaded, a.State())

	feed, err = a.Initialize(ctx, HomeScope(2))
	require.Equal(t, errTest, err)
	assert.Equal(t, []entities.PostID{3, 2}, ids(feed.Items))
	assert.Equal(t, HomeScope(1), a.Scope())
	assert.Equal(t, StateLoaded, a.State())

	// the failed page is requested again
	f.err = nil
	f.pages[2] = &entities.Page{Items: items(1)}

	feed, err = a.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PostID{3, 2, 1}, ids(feed.Items))
	assert.Equal(t, 2, f.calls[len(f.calls)-1].Page)
}

func TestAccumulator_RemovePost(t *testing.T) {
	f := &fakePages{pages: map[int]*entities.Page{
		1: {Items: items(5, 4, 3, 2), HasMore: true},
	}}
	a := NewAccumulator("s", f)

	_, err := a.Initialize(context.Background(), HomeScope(1))
	require.NoError(t, err)

	feed, ok := a.RemovePost(4)
	require.True(t, ok)
	assert.Equal(t, []entities.PostID{5, 3, 2}, ids(feed.Items))
	assert.True(t, feed.HasMore)

	feed, ok = a.RemovePost(4)
	require.False(t, ok)
	assert.Equal(t, []entities.PostID{5, 3, 2}, ids(feed.Items))

	feed, ok = a.RemovePost(2)
	require.True(t, ok)
	assert.Equal(t, []entities.PostID{5, 3}, ids(feed.Items))
}

func TestAccumulator_Update(t *testing.T) {
	f := &fakePages{pages: map[int]*entities.Page{
		1: {Items: items(2, 1)},
	}}
	a := NewAccumulator("s", f)

	_, err := a.Initialize(context.Background(), HomeScope(1))
	require.NoError(t, err)

	like := func(item entities.FeedItem) entities.FeedItem {
		item.LikeCount++
		item.LikedByViewer = true
		return item
	}

	feed, ok := a.Update(1, like)
	require.True(t, ok)
	assert.Equal(t, []entities.PostID{2, 1}, ids(feed.Items))
	assert.EqualValues(t, 1, feed.Items[1].LikeCount)
	assert.True(t, feed.Items[1].LikedByViewer)
	assert.False(t, feed.Items[0].LikedByViewer)

	_, ok = a.Update(3, like)
	require.False(t, ok)

	// snapshots are detached from the accumulator
	feed.Items[0].Content = "changed"
	assert.Empty(t, a.Feed().Items[0].Content)
}

func TestAccumulator_Reset(t *testing.T) {
	const v, a = 1, 2

	g := newGraph(v, a).post(10, a, 1).post(11, v, 2)
	g.follows[v] = []entities.UserID{a}

	pc := NewPageCache(NewPlanner(g), memory.NewStorage(100), time.Minute)
	acc := NewAccumulator("s", pc)
	ctx := context.Background()

	feed, err := acc.Initialize(ctx, HomeScope(v))
	require.NoError(t, err)
	require.Equal(t, []entities.PostID{11, 10}, ids(feed.Items))

	g.post(12, v, 3)

	// cached pages are served until the session is invalidated
	feed, err = acc.Reset(ctx)
	require.NoError(t, err)
	require.Equal(t, []entities.PostID{11, 10}, ids(feed.Items))

	require.NoError(t, pc.Invalidate(ctx, "s"))

	feed, err = acc.Reset(ctx)
	require.NoError(t, err)
	require.Equal(t, []entities.PostID{12, 11, 10}, ids(feed.Items))
	require.Equal(t, 2, g.listCalls)
}

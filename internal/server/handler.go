package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/socialconnect/feed/internal/api"
	"github.com/socialconnect/feed/internal/entities"
	"github.com/socialconnect/feed/internal/feed"
	"github.com/socialconnect/feed/internal/service"
	"github.com/socialconnect/feed/internal/storage"
)

var errInvalidRequest = errors.New("invalid request")

func (s server) getUser(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /users/{handle} Users GetUser
	//
	// Returns user by handle.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	//   example: alice
	// responses:
	//   '200':
	//     description: User
	//     schema:
	//       "$ref": "#/definitions/User"
	//   '404':
	//     description: user not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	u, err := s.s.GetUser(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, u)
}

func (s server) listProfilePosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /users/{handle}/posts Feed ListProfilePosts
	//
	// Returns a page of user's top-level posts, newest first. Anonymous responses are cached for a short time.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	//   example: alice
	// - name: page
	//   description: page number starting from 1
	//   in: query
	//   required: false
	//   default: 1
	//   minimum: 1
	// - name: cursor
	//   description: opaque token returned as next, has precedence over page
	//   in: query
	//   required: false
	// - name: X-User-ID
	//   description: viewer's id, adds likedByViewer flag
	//   in: header
	//   required: false
	// responses:
	//   '200':
	//     description: Page
	//     schema:
	//       "$ref": "#/definitions/PageResponse"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: user not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	viewer, err := getViewer(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cursor, err := getCursor(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.s.ProfilePage(r.Context(), viewer, chi.URLParam(r, "handle"), cursor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, newPageResponse(page))
}

func (s server) follow(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /users/{handle}/follow Users Follow
	//
	// Follows the user. Session's home feed is reloaded.
	//
	// ---
	// parameters:
	// - name: handle
	//   in: path
	//   required: true
	// - name: X-User-ID
	//   in: header
	//   required: true
	// - name: X-Session-ID
	//   in: header
	//   required: false
	// responses:
	//   '200':
	//     description: Session's feed
	//     schema:
	//       "$ref": "#/definitions/FeedResponse"
	//   '400':
	//     description: self follow
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: user not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	s.changeFollow(w, r, s.s.Follow)
}

func (s server) unfollow(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /users/{handle}/follow Users Unfollow
	//
	// Unfollows the user. Session's home feed is reloaded.
	//
	// ---
	// responses:
	//   '200':
	//     description: Session's feed
	//     schema:
	//       "$ref": "#/definitions/FeedResponse"

	s.changeFollow(w, r, s.s.Unfollow)
}

func (s server) changeFollow(
	w http.ResponseWriter, r *http.Request,
	f func(ctx context.Context, session string, follower, followee entities.UserID) (entities.Feed, error),
) {
	follower, ok := requireUser(w, r)
	if !ok {
		return
	}

	followee, err := s.s.GetUser(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := f(r.Context(), getSession(r), follower, followee.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, newFeedResponse(out))
}

func (s server) initializeFeed(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /feed Feed InitializeFeed
	//
	// Starts session's feed from the first page. It's a home feed of the viewer or a profile feed when target is set.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: X-Session-ID
	//   in: header
	//   required: true
	// - name: X-User-ID
	//   in: header
	//   required: false
	// - name: request
	//   in: body
	//   required: false
	//   schema:
	//     "$ref": "#/definitions/InitializeFeedRequest"
	// responses:
	//   '200':
	//     description: Session's feed
	//     schema:
	//       "$ref": "#/definitions/FeedResponse"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: target not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '503':
	//     description: storage is unavailable
	//     schema:
	//       "$ref": "#/definitions/Error"

	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	viewer, err := getViewer(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req InitializeFeedRequest
	if r.ContentLength > 0 {
		if err := api.Decode(r, &req); err != nil {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	scope := feed.Scope{ViewerID: viewer}
	if req.Target != "" {
		target, err := s.s.GetUser(r.Context(), req.Target)
		if err != nil {
			writeError(w, r, err)
			return
		}
		scope = feed.ProfileScope(viewer, target.ID)
	}

	out, err := s.s.InitializeFeed(r.Context(), session, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, newFeedResponse(out))
}

func (s server) getFeed(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	out, err := s.s.GetFeed(r.Context(), session)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, newFeedResponse(out))
}

func (s server) loadMore(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /feed/more Feed LoadMore
	//
	// Appends the next page to session's feed. Does nothing when hasMore is false.
	//
	// ---
	// responses:
	//   '200':
	//     description: Session's feed
	//     schema:
	//       "$ref": "#/definitions/FeedResponse"
	//   '404':
	//     description: session isn't initialized
	//     schema:
	//       "$ref": "#/definitions/Error"

	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	out, err := s.s.LoadMore(r.Context(), session)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, newFeedResponse(out))
}

func (s server) refreshFeed(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	out, err := s.s.RefreshFeed(r.Context(), session)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, newFeedResponse(out))
}

func (s server) closeSession(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := s.s.CloseSession(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Posts CreatePost
	//
	// Creates a post or a comment when parentId is set. Session's feed is reloaded after a top-level post.
	//
	// ---
	// consumes:
	// - application/json
	// produces:
	// - application/json
	// parameters:
	// - name: X-User-ID
	//   in: header
	//   required: true
	// - name: X-Session-ID
	//   in: header
	//   required: false
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CreatePostRequest"
	// responses:
	//   '201':
	//     description: Created post and session's feed
	//     schema:
	//       "$ref": "#/definitions/PostResponse"
	//   '400':
	//     description: invalid content
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: parent not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	author, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, out, err := s.s.CreatePost(r.Context(), getSession(r), &service.CreatePostParams{
		AuthorID: author,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusCreated, PostResponse{Post: p, Feed: newFeedResponse(out)})
}

func (s server) editPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /posts/{id} Posts EditPost
	//
	// Changes post's content. Only the author can do it within 15 minutes after creation.
	//
	// ---
	// responses:
	//   '200':
	//     description: Changed post and session's feed
	//     schema:
	//       "$ref": "#/definitions/PostResponse"
	//   '403':
	//     description: post belongs to another user
	//     schema:
	//       "$ref": "#/definitions/Error"

	editor, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := getPostID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req EditPostRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, out, err := s.s.EditPost(r.Context(), getSession(r), editor, id, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, PostResponse{Post: p, Feed: newFeedResponse(out)})
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{id} Posts DeletePost
	//
	// Deletes post with its comments and removes it from session's feed.
	//
	// ---
	// responses:
	//   '200':
	//     description: Session's feed
	//     schema:
	//       "$ref": "#/definitions/FeedResponse"
	//   '403':
	//     description: post belongs to another user
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	deleter, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := getPostID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.s.DeletePost(r.Context(), getSession(r), deleter, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, newFeedResponse(out))
}

func (s server) toggleLike(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/like Posts ToggleLike
	//
	// Likes the post or removes the like.
	//
	// ---
	// responses:
	//   '200':
	//     description: New like state and session's feed
	//     schema:
	//       "$ref": "#/definitions/LikeResponse"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := getPostID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	liked, out, err := s.s.ToggleLike(r.Context(), getSession(r), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, LikeResponse{Liked: liked, Feed: newFeedResponse(out)})
}

func (s server) listComments(w http.ResponseWriter, r *http.Request) {
	viewer, err := getViewer(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := getPostID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := s.s.ListComments(r.Context(), viewer, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	api.WriteOK(w, http.StatusOK, CommentsResponse{Comments: comments})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		api.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		api.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, feed.ErrInvalidCursor):
		api.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		api.GetLogger(r.Context()).WithError(err).Error("storage is unavailable")
		api.WriteError(w, http.StatusServiceUnavailable, "storage is unavailable")
	default:
		api.WriteInternalErrorf(r.Context(), w, "request failed: %s", err.Error())
	}
}

func authenticated(r *http.Request) bool {
	return r.Header.Get(UserIDHeader) != ""
}

func getViewer(r *http.Request) (*entities.UserID, error) {
	s := r.Header.Get(UserIDHeader)
	if s == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid %s", errInvalidRequest, UserIDHeader)
	}

	out := entities.UserID(id)
	return &out, nil
}

func requireUser(w http.ResponseWriter, r *http.Request) (entities.UserID, bool) {
	viewer, err := getViewer(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}

	if viewer == nil {
		api.WriteError(w, http.StatusUnauthorized, fmt.Sprintf("%s is required", UserIDHeader))
		return 0, false
	}

	return *viewer, true
}

func getSession(r *http.Request) string {
	return r.Header.Get(SessionIDHeader)
}

func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := getSession(r)
	if session == "" {
		api.WriteError(w, http.StatusBadRequest, fmt.Sprintf("%s is required", SessionIDHeader))
		return "", false
	}

	return session, true
}

func getPostID(r *http.Request) (entities.PostID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid post id", errInvalidRequest)
	}

	return entities.PostID(id), nil
}

func getCursor(r *http.Request) (feed.Cursor, error) {
	q := r.URL.Query()

	if token := q.Get("cursor"); token != "" {
		return feed.Cursor{Token: token}, nil
	}

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return feed.Cursor{}, fmt.Errorf("%w: invalid page", errInvalidRequest)
		}
		return feed.Cursor{Page: n}, nil
	}

	return feed.FirstPage, nil
}

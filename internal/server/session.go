package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/observability"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 16384,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message types a client may send.
const (
	msgResize           = "resize"
	msgDown             = "down"
	msgMove             = "move"
	msgUp               = "up"
	msgZoom             = "zoom"
	msgPan              = "pan"
	msgRecenter         = "recenter"
	msgLock             = "lock"
	msgLocale           = "locale"
	msgSelect           = "select"
	msgOpenCreate       = "openCreate"
	msgEditMember       = "editMember"
	msgEditConnection   = "editConnection"
	msgSubmitMember     = "submitMember"
	msgSaveConnection   = "saveConnection"
	msgDeleteConnection = "deleteConnection"
	msgDeleteMember     = "deleteMember"
	msgCancel           = "cancel"
	msgReload           = "reload"
)

// inbound is one client event. Pointer coordinates are relative to the
// client's canvas container, in screen units.
type inbound struct {
	Type string  `json:"type"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`

	// Width and Height size the container (resize).
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Delta is the wheel direction for zoom: positive zooms in.
	Delta float64 `json:"delta,omitempty"`

	// On sets lock or locale.
	On bool `json:"on,omitempty"`

	ID         string             `json:"id,omitempty"`
	Member     *family.Member     `json:"member,omitempty"`
	Connection *family.Connection `json:"connection,omitempty"`
}

// frame is the server's answer to every event.
type frame struct {
	Type   string             `json:"type"`
	Model  canvas.RenderModel `json:"model"`
	Form   canvas.Form        `json:"form"`
	Result *canvas.Result     `json:"result,omitempty"`
	Error  *errorBody         `json:"error,omitempty"`
}

// session is one live canvas over a WebSocket.
type session struct {
	conn   *websocket.Conn
	ctrl   *canvas.Controller
	logger *log.Logger
	reload chan struct{}

	// stale marks a reload deferred until the current gesture ends.
	stale bool
}

func (s *Server) serveCanvas(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sess := &session{
		conn: conn,
		ctrl: canvas.New(s.svc, canvas.Options{
			CardSize: s.opts.CardSize,
			Locked:   s.opts.Locked,
			Localize: localized(r, s.opts.Localize),
			Logger:   s.logger,
		}),
		logger: s.logger.With("remote", r.RemoteAddr),
		reload: make(chan struct{}, 1),
	}
	if !s.hub.register(sess) {
		return
	}
	defer s.hub.unregister(sess)

	observability.HTTP().OnSession(true)
	defer observability.HTTP().OnSession(false)
	sess.logger.Info("canvas session opened")
	defer sess.logger.Info("canvas session closed")

	ctx := r.Context()
	if err := sess.ctrl.Reload(ctx); err != nil {
		_ = sess.send(nil, err)
		return
	}
	if err := sess.send(nil, nil); err != nil {
		return
	}
	s.loop(ctx, sess)
}

// loop serialises client events and reload signals onto the controller.
func (s *Server) loop(ctx context.Context, sess *session) {
	msgs := make(chan inbound)
	go func() {
		defer close(msgs)
		sess.conn.SetReadLimit(maxMessageSize)
		for {
			var in inbound
			if err := sess.conn.ReadJSON(&in); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					sess.logger.Debug("read failed", "err", err)
				}
				return
			}
			select {
			case msgs <- in:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.hub.done:
			_ = sess.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-sess.reload:
			if !sess.idle() {
				sess.stale = true
				continue
			}
			if err := sess.send(nil, sess.ctrl.Reload(ctx)); err != nil {
				return
			}
		case in, ok := <-msgs:
			if !ok {
				return
			}
			res, changed, err := s.handle(ctx, sess, in)
			if changed && err == nil {
				s.hub.broadcast(sess)
			}
			if err != nil && changed {
				// Drop the optimistic change the store refused.
				if rerr := sess.ctrl.Reload(ctx); rerr != nil {
					sess.logger.Warn("reload after failed commit", "err", rerr)
				}
			}
			if sess.stale && sess.idle() {
				sess.stale = false
				if rerr := sess.ctrl.Reload(ctx); rerr != nil && err == nil {
					err = rerr
				}
			}
			if werr := sess.send(res, err); werr != nil {
				return
			}
		}
	}
}

// handle applies one event. changed reports whether the event tried to
// write to the store.
func (s *Server) handle(ctx context.Context, sess *session, in inbound) (*canvas.Result, bool, error) {
	ctrl := sess.ctrl
	pt := geometry.Point{X: in.X, Y: in.Y}

	switch in.Type {
	case msgResize:
		ctrl.SetContainer(geometry.Size{W: in.Width, H: in.Height})
	case msgDown:
		ctrl.PointerDown(ctrl.HitTest(pt), pt)
	case msgMove:
		ctrl.PointerMove(pt)
	case msgUp:
		res, err := ctrl.PointerUp(ctx, ctrl.HitTest(pt), pt)
		changed := res.Outcome == canvas.OutcomeMoved || res.Outcome == canvas.OutcomeConnected
		return &res, changed, err
	case msgZoom:
		switch {
		case in.Delta > 0:
			ctrl.ZoomIn()
		case in.Delta < 0:
			ctrl.ZoomOut()
		}
	case msgPan:
		ctrl.SetViewport(ctrl.Viewport().Pan(pt))
	case msgRecenter:
		ctrl.RecenterOnSelf()
	case msgLock:
		ctrl.SetLocked(in.On)
	case msgLocale:
		ctrl.SetLocalize(in.On)
	case msgSelect:
		ctrl.Select(in.ID)
	case msgOpenCreate:
		ctrl.OpenCreateMember()
	case msgEditMember:
		_, err := ctrl.OpenEditMember(in.ID)
		return nil, false, err
	case msgEditConnection:
		_, err := ctrl.OpenEditConnection(in.ID)
		return nil, false, err
	case msgSubmitMember:
		if in.Member == nil {
			return nil, false, errors.New(errors.ErrCodeInvalidInput, "submitMember needs a member")
		}
		_, err := ctrl.SubmitMember(ctx, *in.Member)
		return nil, true, err
	case msgSaveConnection:
		if in.Connection == nil {
			return nil, false, errors.New(errors.ErrCodeInvalidInput, "saveConnection needs a connection")
		}
		return nil, true, ctrl.SaveConnection(ctx, *in.Connection)
	case msgDeleteConnection:
		return nil, true, ctrl.DeleteConnection(ctx, in.ID)
	case msgDeleteMember:
		return nil, true, ctrl.DeleteMember(ctx, in.ID)
	case msgCancel:
		ctrl.CancelForm()
	case msgReload:
		sess.stale = false
		return nil, false, ctrl.Reload(ctx)
	default:
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "unknown message type %q", in.Type)
	}
	return nil, false, nil
}

func (sess *session) idle() bool {
	_, ok := sess.ctrl.State().(canvas.Idle)
	return ok
}

// send writes the current frame.
func (sess *session) send(res *canvas.Result, err error) error {
	f := frame{
		Type:   "frame",
		Model:  sess.ctrl.Model(),
		Form:   sess.ctrl.Form(),
		Result: res,
	}
	if err != nil {
		f.Error = &errorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)}
	}
	_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if werr := sess.conn.WriteJSON(f); werr != nil {
		sess.logger.Debug("write failed", "err", werr)
		return werr
	}
	return nil
}

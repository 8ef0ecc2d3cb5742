package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crease/internal/adapters/http/api"
	"github.com/okian/crease/internal/adapters/source"
	service "github.com/okian/crease/internal/app"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func newHandler(ctx context.Context) (http.Handler, *service.Service) {
	svc := service.New(
		service.WithSource(source.NewDemo()),
		service.WithPollInterval(time.Hour),
		service.WithWorkerCount(1),
	)
	_ = svc.Start(ctx)
	return api.NewServer(svc, svc, api.WithMaxNotificationLimit(10)).Handler(ctx), svc
}

func do(h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestScoresAPI(t *testing.T) {
	Convey("Given the API over a fresh service", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		h, svc := newHandler(ctx)
		defer svc.Stop(ctx)

		Convey("POST /api/scores creates a record", func() {
			w, body := do(h, http.MethodPost, "/api/scores",
				`{"matchId":"m1","playerId":"p1","playerName":"Rohit Sharma","team":"India","runs":50,"ballsFaced":40}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(body["success"], ShouldEqual, true)
			So(body["message"], ShouldEqual, "Score created successfully")
			score := body["score"].(map[string]any)
			So(score["strikeRate"], ShouldEqual, 125.0)
			_, hasEconomy := score["economyRate"]
			So(hasEconomy, ShouldBeFalse)

			Convey("GET lists it with a case-insensitive team filter", func() {
				w, body := do(h, http.MethodGet, "/api/scores?team=INDIA", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["count"], ShouldEqual, 1.0)
			})

			Convey("PUT merges and recomputes", func() {
				w, body := do(h, http.MethodPut, "/api/scores/m1/p1", `{"ballsFaced":50}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["score"].(map[string]any)["strikeRate"], ShouldEqual, 100.0)
			})

			Convey("DELETE removes it", func() {
				w, _ := do(h, http.MethodDelete, "/api/scores/m1/p1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				w, body := do(h, http.MethodGet, "/api/scores/m1/p1", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(body["message"], ShouldEqual, "Score not found")
			})
		})

		Convey("POST without identity fields is a 400", func() {
			w, body := do(h, http.MethodPost, "/api/scores", `{"matchId":"m1"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(body["success"], ShouldEqual, false)
			So(body["message"], ShouldEqual, "MatchId, playerId, playerName, and team are required")
		})

		Convey("Negative counters are a 400", func() {
			w, _ := do(h, http.MethodPost, "/api/scores",
				`{"matchId":"m1","playerId":"p1","playerName":"A","team":"B","runs":-4}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Malformed JSON is a 400", func() {
			w, _ := do(h, http.MethodPost, "/api/scores", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("PUT on a missing record is a 404", func() {
			w, _ := do(h, http.MethodPut, "/api/scores/m1/ghost", `{"runs":1}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Unsupported methods are a JSON 405", func() {
			w, body := do(h, http.MethodPatch, "/api/scores", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(body["message"], ShouldEqual, "Method not allowed")
		})
	})
}

func TestMatchesAPI(t *testing.T) {
	Convey("Given the API over the demo source", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		h, svc := newHandler(ctx)
		defer svc.Stop(ctx)

		Convey("Live matches are listed", func() {
			w, body := do(h, http.MethodGet, "/api/matches", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(body["data"].([]any)), ShouldEqual, 2)
		})

		Convey("A scorecard section is served", func() {
			w, body := do(h, http.MethodGet, "/api/matches/match_001/bowling", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			first := body["data"].([]any)[0].(map[string]any)
			So(first["bowler"], ShouldEqual, "Pat Cummins")
		})

		Convey("Unknown matches are a 404", func() {
			w, body := do(h, http.MethodGet, "/api/matches/match_999", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(body["message"], ShouldEqual, "Match not found")
		})

		Convey("Unknown sections are a 404", func() {
			w, _ := do(h, http.MethodGet, "/api/matches/match_001/umpires", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLiveAndNotificationsAPI(t *testing.T) {
	Convey("Given a user following match_001", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		h, svc := newHandler(ctx)
		defer svc.Stop(ctx)

		w, _ := do(h, http.MethodPost, "/api/live/match_001/followers/u1", "")
		So(w.Code, ShouldEqual, http.StatusOK)

		Convey("The first tick produced a notification", func() {
			w, body := do(h, http.MethodGet, "/api/notifications/u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(body["count"], ShouldEqual, 1.0)
			So(body["unread"], ShouldEqual, 1.0)
			n := body["notifications"].([]any)[0].(map[string]any)

			Convey("And it can be marked read", func() {
				w, _ := do(h, http.MethodPost, "/api/notifications/u1/"+n["id"].(string)+"/read", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				_, body := do(h, http.MethodGet, "/api/notifications/u1", "")
				So(body["unread"], ShouldEqual, 0.0)
			})
		})

		Convey("Marking an unknown notification is a 404", func() {
			w, _ := do(h, http.MethodPost, "/api/notifications/u1/nope/read", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("An invalid limit is a 400", func() {
			w, _ := do(h, http.MethodGet, "/api/notifications/u1?limit=abc", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Clearing empties the history", func() {
			w, _ := do(h, http.MethodDelete, "/api/notifications/u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			_, body := do(h, http.MethodGet, "/api/notifications/u1", "")
			So(body["count"], ShouldEqual, 0.0)
		})

		Convey("Unfollowing twice is a 404 the second time", func() {
			w, _ := do(h, http.MethodDelete, "/api/live/match_001/followers/u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			w, _ = do(h, http.MethodDelete, "/api/live/match_001/followers/u1", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestOpsAPI(t *testing.T) {
	Convey("Given the API", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		h, svc := newHandler(ctx)
		defer svc.Stop(ctx)

		Convey("/healthz serves Prometheus metrics", func() {
			do(h, http.MethodGet, "/api/scores", "")
			w, _ := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "crease_")
		})

		Convey("/stats reports the service state", func() {
			w, body := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)
		})

		Convey("/ws requires a userId", func() {
			w, _ := do(h, http.MethodGet, "/ws", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestWebSocket(t *testing.T) {
	Convey("Given a connected WebSocket client", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		h, svc := newHandler(ctx)
		defer svc.Stop(ctx)
		srv := httptest.NewServer(h)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=u1"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		deadline := time.Now().Add(2 * time.Second)
		for svc.GetStats()["subscribers"].(int) == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		Convey("It receives only its own user's notifications", func() {
			_, err := svc.Notify(ctx, "u2", model.Event{Type: model.NotificationAlert, Title: "other"})
			So(err, ShouldBeNil)
			_, err = svc.Notify(ctx, "u1", model.Event{Type: model.NotificationWicket, Title: "Wicket!"})
			So(err, ShouldBeNil)

			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var n model.Notification
			So(conn.ReadJSON(&n), ShouldBeNil)
			So(n.UserID, ShouldEqual, "u1")
			So(n.Title, ShouldEqual, "Wicket!")
		})
	})
}

package source_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crease/internal/adapters/source"
	"github.com/okian/crease/internal/domain/model"
)

func TestHTTPClient(t *testing.T) {
	Convey("Given an upstream cricket API", t, func() {
		var gotKey string
		mux := http.NewServeMux()
		mux.HandleFunc("/matches/match_001/scorecard", func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("X-API-Key")
			_ = json.NewEncoder(w).Encode(model.Scorecard{
				Status:  "live",
				Batting: []model.Batting{{Player: "Virat Kohli", Runs: 78, Balls: 89}},
			})
		})
		mux.HandleFunc("/matches/match_001/commentary", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]model.Commentary{{Over: 32.2, Ball: 2, Text: "SIX!"}})
		})
		mux.HandleFunc("/matches/broken/scorecard", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		})
		mux.HandleFunc("/matches", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]model.Match{{ID: "match_001", Status: r.URL.Query().Get("status")}})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := source.NewHTTPClient(srv.URL+"/", source.WithAPIKey("demo"), source.WithHTTPClient(srv.Client()))
		ctx := context.Background()

		Convey("A scorecard is fetched with its commentary", func() {
			card, err := c.FetchScorecard(ctx, "match_001")
			So(err, ShouldBeNil)
			So(gotKey, ShouldEqual, "demo")
			So(card.MatchID, ShouldEqual, "match_001")
			So(card.Batting[0].Runs, ShouldEqual, 78)
			So(card.Commentary[0].Text, ShouldEqual, "SIX!")
		})

		Convey("Unknown matches map to ErrMatchNotFound", func() {
			_, err := c.FetchScorecard(ctx, "nope")
			So(errors.Is(err, source.ErrMatchNotFound), ShouldBeTrue)
		})

		Convey("Server errors map to ErrUpstream", func() {
			_, err := c.FetchScorecard(ctx, "broken")
			So(errors.Is(err, source.ErrUpstream), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "503")
		})

		Convey("Live matches are listed", func() {
			matches, err := c.ListMatches(ctx)
			So(err, ShouldBeNil)
			So(matches[0].Status, ShouldEqual, "live")
		})
	})
}

func TestStatic(t *testing.T) {
	Convey("Given the demo source", t, func() {
		ctx := context.Background()
		s := source.NewDemo()

		Convey("Both demo matches are live", func() {
			matches, err := s.ListMatches(ctx)
			So(err, ShouldBeNil)
			So(len(matches), ShouldEqual, 2)
			So(matches[0].ID, ShouldEqual, "match_001")
		})

		Convey("Fetched cards are copies", func() {
			card, err := s.FetchScorecard(ctx, "match_001")
			So(err, ShouldBeNil)
			card.Batting[0].Runs = 999
			again, _ := s.FetchScorecard(ctx, "match_001")
			So(again.Batting[0].Runs, ShouldEqual, 45)
		})

		Convey("Update changes what later fetches see", func() {
			So(s.Update("match_001", func(c *model.Scorecard) { c.Bowling[0].Wickets++ }), ShouldBeNil)
			card, _ := s.FetchScorecard(ctx, "match_001")
			So(card.Bowling[0].Wickets, ShouldEqual, 3)
			So(errors.Is(s.Update("missing", func(*model.Scorecard) {}), source.ErrMatchNotFound), ShouldBeTrue)
		})

		Convey("Unknown matches are not found", func() {
			_, err := s.FetchScorecard(ctx, "match_999")
			So(errors.Is(err, source.ErrMatchNotFound), ShouldBeTrue)
		})
	})
}

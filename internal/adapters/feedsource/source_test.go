package feedsource_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/bankroll/internal/adapters/feedsource"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given feed locations", t, func() {
		Convey("An empty location yields an empty feed", func() {
			src := feedsource.New("  ", time.Second)
			So(src, ShouldHaveSameTypeAs, feedsource.EmptySource{})
			raw, err := src.Fetch(context.Background())
			So(err, ShouldBeNil)
			So(raw, ShouldBeEmpty)
		})

		Convey("A URL yields an HTTP source", func() {
			So(feedsource.New("https://example.com/feed.txt", time.Second), ShouldHaveSameTypeAs, &feedsource.HTTPSource{})
		})

		Convey("A path yields a file source", func() {
			So(feedsource.New("/tmp/feed.txt", time.Second), ShouldResemble, feedsource.FileSource{Path: "/tmp/feed.txt"})
		})
	})
}

func TestFileSource(t *testing.T) {
	Convey("Given a feed file", t, func() {
		path := filepath.Join(t.TempDir(), "results.txt")
		So(os.WriteFile(path, []byte("[R1] A 1–0 B"), 0o600), ShouldBeNil)

		Convey("Fetch returns its contents", func() {
			raw, err := feedsource.FileSource{Path: path}.Fetch(context.Background())
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "[R1] A 1–0 B")
		})

		Convey("A missing file reports ErrFetch", func() {
			_, err := feedsource.FileSource{Path: path + ".missing"}.Fetch(context.Background())
			So(errors.Is(err, feedsource.ErrFetch), ShouldBeTrue)
		})
	})
}

func TestHTTPSource(t *testing.T) {
	Convey("Given an HTTP feed server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/feed" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("🎯 PARTIDA: A x B"))
		}))
		defer srv.Close()

		Convey("Fetch returns the body", func() {
			raw, err := feedsource.NewHTTPSource(srv.URL + "/feed").Fetch(context.Background())
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "🎯 PARTIDA: A x B")
		})

		Convey("A non-200 status reports ErrFetch", func() {
			_, err := feedsource.NewHTTPSource(srv.URL + "/missing").Fetch(context.Background())
			So(errors.Is(err, feedsource.ErrFetch), ShouldBeTrue)
		})

		Convey("A cancelled context fails the fetch", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := feedsource.NewHTTPSource(srv.URL+"/feed", feedsource.WithTimeout(time.Second)).Fetch(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}

package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/boared/internal/adapters/repository"
	"github.com/okian/boared/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOpen(t *testing.T) {
	Convey("Given the store drivers", t, func() {
		Convey("When an unknown driver is requested", func() {
			_, err := repository.Open("postgres", "")

			Convey("Then it fails with ErrUnknownDriver", func() {
				So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
			})
		})

		Convey("When no driver is named", func() {
			s, err := repository.Open("", "")

			Convey("Then the memory store is used", func() {
				So(err, ShouldBeNil)
				_, ok := s.(*repository.MemoryStore)
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestParseDSN(t *testing.T) {
	Convey("Given driver:path strings", t, func() {
		d, p := repository.ParseDSN("sqlite:/tmp/boared.db")
		So(d, ShouldEqual, "sqlite")
		So(p, ShouldEqual, "/tmp/boared.db")

		d, p = repository.ParseDSN("memory")
		So(d, ShouldEqual, "memory")
		So(p, ShouldBeEmpty)
	})
}

func TestMemoryStore_Copies(t *testing.T) {
	Convey("Given a memory store with one session", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore()
		So(s.UpsertMember(ctx, model.Member{Name: "alice"}), ShouldBeNil)
		So(s.UpsertMember(ctx, model.Member{Name: "bob"}), ShouldBeNil)
		So(s.AddGame(ctx, model.Game{Name: "catan", Type: "trading"}), ShouldBeNil)
		sess, err := s.AddSession(ctx, model.Session{
			Game: "catan", Date: date(2024, 1, 1), Host: "alice",
			Results: []model.Result{{Member: "alice", Place: 1}, {Member: "bob", Place: 2}},
		})
		So(err, ShouldBeNil)

		Convey("When a caller mutates a listed session", func() {
			listed, err := s.ListSessionsChronological(ctx)
			So(err, ShouldBeNil)
			listed[0].Results[0].Place = 9

			Convey("Then the stored session is unchanged", func() {
				got, err := s.GetSession(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.Results[0].Place, ShouldEqual, 1)
			})
		})

		Convey("Then generated IDs are UUIDs", func() {
			So(sess.ID, ShouldHaveLength, 36)
		})
	})
}

func TestTransfer(t *testing.T) {
	Convey("Given a populated memory store", t, func() {
		ctx := context.Background()
		src := repository.NewMemoryStore()
		for _, m := range []string{"alice", "bob", "carol"} {
			So(src.UpsertMember(ctx, model.Member{Name: m, JoinDate: date(2023, 6, 1)}), ShouldBeNil)
		}
		So(src.AddGame(ctx, model.Game{Name: "catan", Type: "trading"}), ShouldBeNil)
		So(src.AddGame(ctx, model.Game{Name: "azul", Type: "tiles"}), ShouldBeNil)
		_, err := src.AddSession(ctx, model.Session{
			ID: "s1", Game: "catan", Date: date(2024, 1, 1), Host: "alice",
			Results: []model.Result{{Member: "alice", Place: 1, Score: 10}, {Member: "bob", Place: 2, Score: 5}},
		})
		So(err, ShouldBeNil)
		_, err = src.AddSession(ctx, model.Session{
			ID: "s2", Game: "azul", Date: date(2024, 1, 2), Host: "carol",
			Results: []model.Result{{Member: "carol", Place: 1, Score: 60}, {Member: "alice", Place: 2, Score: 41}, {Member: "bob", Place: 3, Score: 12}},
		})
		So(err, ShouldBeNil)

		Convey("When it is transferred into a SQLite store", func() {
			dst, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "boared.db"))
			So(err, ShouldBeNil)
			defer dst.Close()

			counts, err := repository.Transfer(ctx, src, dst)

			Convey("Then every record arrives with its ID", func() {
				So(err, ShouldBeNil)
				So(counts, ShouldResemble, repository.Counts{Members: 3, Games: 2, Sessions: 2, Results: 5})

				want, _ := src.ListSessionsChronological(ctx)
				got, err := dst.ListSessionsChronological(ctx)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
			})
		})

		Convey("When the destination already holds a game", func() {
			dst := repository.NewMemoryStore()
			So(dst.AddGame(ctx, model.Game{Name: "azul", Type: "tiles"}), ShouldBeNil)

			_, err := repository.Transfer(ctx, src, dst)

			Convey("Then the conflict is reported", func() {
				So(errors.Is(err, repository.ErrDuplicateGame), ShouldBeTrue)
			})
		})
	})
}

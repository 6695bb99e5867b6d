package history_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/boared/internal/adapters/history"
	"github.com/okian/boared/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

const sample = `
members:
  - name: alice
    join_date: 2023-01-10
  - name: bob
    join_date: 2023-02-01
  - name: carol
games:
  - name: catan
    type: trading
  - name: azul
    type: tiles
sessions:
  - game: catan
    date: 2024-01-05
    host: alice
    results:
      - {member: alice, place: 1, score: 10}
      - {member: bob, place: 2, score: 8}
      - {member: carol, place: 3, score: 4}
  - id: fixed
    game: azul
    date: 2024-01-06
    host: bob
    results:
      - {member: carol, place: 1, score: 70}
      - {member: alice, place: 2, score: 55}
`

func TestLoadAndApply(t *testing.T) {
	Convey("Given a history document", t, func() {
		ctx := context.Background()
		doc, err := history.Load(strings.NewReader(sample))
		So(err, ShouldBeNil)

		Convey("Then it decodes every section", func() {
			So(doc.Members, ShouldHaveLength, 3)
			So(doc.Members[0].JoinDate, ShouldEqual, "2023-01-10")
			So(doc.Games, ShouldHaveLength, 2)
			So(doc.Sessions, ShouldHaveLength, 2)
			So(doc.Sessions[1].Results[0].Score, ShouldEqual, 70)
		})

		Convey("When it is applied to a store", func() {
			store := repository.NewMemoryStore()
			counts, err := doc.Apply(ctx, store)

			Convey("Then every record is written", func() {
				So(err, ShouldBeNil)
				So(counts, ShouldResemble, repository.Counts{Members: 3, Games: 2, Sessions: 2, Results: 5})

				sessions, err := store.ListSessionsChronological(ctx)
				So(err, ShouldBeNil)
				So(sessions, ShouldHaveLength, 2)
				So(sessions[1].ID, ShouldEqual, "fixed")
				So(sessions[0].Results[0].Member, ShouldEqual, "alice")
			})

			Convey("And exporting it yields an equivalent document", func() {
				exported, err := history.Export(ctx, store)
				So(err, ShouldBeNil)
				So(exported.Members, ShouldResemble, []history.Member{
					{Name: "alice", JoinDate: "2023-01-10"},
					{Name: "bob", JoinDate: "2023-02-01"},
					{Name: "carol", JoinDate: "0001-01-01"},
				})
				So(exported.Sessions[1], ShouldResemble, doc.Sessions[1])

				var buf bytes.Buffer
				So(history.Write(&buf, exported), ShouldBeNil)
				again, err := history.Load(&buf)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, exported)
			})
		})
	})
}

func TestLoad_Errors(t *testing.T) {
	Convey("Given malformed documents", t, func() {
		Convey("When a field is unknown", func() {
			_, err := history.Load(strings.NewReader("players: []\n"))

			Convey("Then loading fails", func() {
				So(errors.Is(err, history.ErrInvalidDocument), ShouldBeTrue)
			})
		})

		Convey("When the input is empty", func() {
			doc, err := history.Load(strings.NewReader(""))

			Convey("Then the document is empty", func() {
				So(err, ShouldBeNil)
				So(doc.Sessions, ShouldBeEmpty)
			})
		})

		Convey("When a session date is malformed", func() {
			doc, err := history.Load(strings.NewReader(`
members: [{name: a}]
games: [{name: g, type: t}]
sessions:
  - {game: g, date: "05/01/2024", host: a}
`))
			So(err, ShouldBeNil)
			_, err = doc.Apply(context.Background(), repository.NewMemoryStore())

			Convey("Then applying fails", func() {
				So(errors.Is(err, history.ErrInvalidDocument), ShouldBeTrue)
			})
		})

		Convey("When a session references an unknown member", func() {
			doc, err := history.Load(strings.NewReader(`
members: [{name: a}]
games: [{name: g, type: t}]
sessions:
  - game: g
    date: 2024-01-01
    host: a
    results: [{member: z, place: 1}]
`))
			So(err, ShouldBeNil)
			counts, err := doc.Apply(context.Background(), repository.NewMemoryStore())

			Convey("Then the store error surfaces", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(counts.Members, ShouldEqual, 1)
				So(counts.Sessions, ShouldEqual, 0)
			})
		})
	})
}

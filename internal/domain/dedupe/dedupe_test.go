package dedupe_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/despeckle/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSet(t *testing.T) {
	Convey("Given a new Set", t, func() {
		Convey("When creating a set with default options", func() {
			d := dedupe.New[string]()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When creating a set with a capacity hint", func() {
			Convey("Then any value is accepted", func() {
				So(dedupe.New[string](dedupe.WithCapacity(100)).Size(), ShouldEqual, 0)
				So(dedupe.New[string](dedupe.WithCapacity(-1)).Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording keys", func() {
			d := dedupe.New[string]()

			Convey("And the key is new", func() {
				seen := d.SeenAndRecord("node-1")

				Convey("Then it should return false and record the key", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the key was already seen", func() {
				d.SeenAndRecord("node-1")
				seen := d.SeenAndRecord("node-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the key is empty or very long", func() {
				long := strings.Repeat("a", 10000)
				So(d.SeenAndRecord(""), ShouldBeFalse)
				So(d.SeenAndRecord(long), ShouldBeFalse)

				Convey("Then both are tracked", func() {
					So(d.SeenAndRecord(""), ShouldBeTrue)
					So(d.SeenAndRecord(long), ShouldBeTrue)
				})
			})
		})

		Convey("When unrecording keys", func() {
			d := dedupe.New[string]()
			d.SeenAndRecord("node-1")
			d.Unrecord("node-1")
			d.Unrecord("missing")

			Convey("Then the key can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord("node-1"), ShouldBeFalse)
			})
		})

		Convey("When keyed by pointers", func() {
			type element struct{ id string }
			a, b := &element{id: "x"}, &element{id: "x"}
			d := dedupe.New[*element]()

			Convey("Then identity decides, not content", func() {
				So(d.SeenAndRecord(a), ShouldBeFalse)
				So(d.SeenAndRecord(b), ShouldBeFalse)
				So(d.SeenAndRecord(a), ShouldBeTrue)
			})
		})
	})
}

func TestSetConcurrency(t *testing.T) {
	Convey("Given a set with concurrent access", t, func() {
		d := dedupe.New[string](dedupe.WithCapacity(1000))
		const numGoroutines = 10
		const keysPerGoroutine = 100

		Convey("When multiple goroutines race on the same keys", func() {
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < keysPerGoroutine; j++ {
						if !d.SeenAndRecord(fmt.Sprintf("node-%d", j)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then every key is recorded exactly once", func() {
				So(fresh, ShouldEqual, keysPerGoroutine)
				So(d.Size(), ShouldEqual, keysPerGoroutine)
			})
		})
	})
}

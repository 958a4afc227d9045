package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/adapters/mq/queue"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(i int) queue.Job {
	return queue.Job{BatchID: "b1", Index: i, User: model.UserData{UserID: "u"}, Reply: make(chan queue.Result, 1)}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		ctx := context.Background()

		Convey("When it is empty", func() {
			So(q.Len(), ShouldEqual, 0)
			So(q.IsClosed(), ShouldBeFalse)
		})

		Convey("When a job is enqueued and dequeued", func() {
			So(q.Enqueue(ctx, job(7)), ShouldBeNil)
			So(q.Len(), ShouldEqual, 1)
			got := <-q.Dequeue()

			Convey("Then the same job comes out", func() {
				So(got.Index, ShouldEqual, 7)
				So(got.BatchID, ShouldEqual, "b1")
				So(q.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, job(1)), ShouldBeNil)
			So(q.Enqueue(ctx, job(2)), ShouldBeNil)
			err := q.Enqueue(ctx, job(3))

			Convey("Then the job is rejected", func() {
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the job is not accepted", func() {
				So(errors.Is(q.Enqueue(cctx, job(1)), context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job(1)), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are rejected", func() {
				So(errors.Is(q.Enqueue(ctx, job(2)), queue.ErrClosed), ShouldBeTrue)
				So(q.IsClosed(), ShouldBeTrue)
			})

			Convey("And queued jobs drain before the channel closes", func() {
				var n int
				for range q.Dequeue() {
					n++
				}
				So(n, ShouldEqual, 1)
			})
		})
	})
}

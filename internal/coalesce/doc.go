/*
Package coalesce schedules refresh-like work onto a single consumer goroutine
without flooding it with redundant invocations.

Producers submit [Task] values to a [Scheduler] from any goroutine. Tasks are
grouped by a caller-defined, comparable coalescence class, and the scheduler
keeps at most one pending task per class: a task submitted while another of the
same class is pending is merged into it, always as older.MergeWith(newer). The
consumer eventually runs the merged task once.

The consumer is any [Poster] that runs callbacks one at a time, in posting
order, on a dedicated goroutine. The loop package provides one.

[Scheduler.ScheduleDeferred] goes further and skips wake-ups while new work
keeps arriving, so that only the most up-to-date merged task runs. It trades
latency for freshness, and under sustained load it may never run the task at
all.
*/
package coalesce

/*
Package eventlog collects worker events into a single time-ordered stream and
drains it in batches.

Every worker owns a Writer that stamps each line with the shared clock and
pushes it onto a Queue. The Queue is a priority queue ordered by timestamp, so
lines written concurrently by different workers come out in temporal order
rather than in racy arrival order. A single Reader polls the Queue in batches
and hands them to a Sink.

# Basic Usage

	q := eventlog.NewQueue(eventlog.DefaultQueueConfig())
	clock := eventlog.SystemClock()

	w := eventlog.NewDistributedWriter(ctx, "P1", clock, q)
	w.Writef("Sent message: %s", "msg-1")

	reader, err := eventlog.NewReader(q, eventlog.NewWriterSink(os.Stdout), eventlog.DefaultReaderConfig())
	if err != nil {
		return err
	}
	go reader.Run(ctx)

	// later, after every worker has stopped
	reader.Flush()

# Output format

WriterSink prints one line per entry:

	P1 - 2024-05-01T10:00:00.123456789Z - Sent message: msg-1

# Flush

Flush removes what it prints. When the reader's own shutdown flush and an
explicit Flush race, each entry is still printed exactly once.

# Sinks

Besides WriterSink, RedisSink publishes every drained entry to a Redis
channel (text, JSON or MessagePack) and MultiSink fans a batch out to several
sinks. Sink failures are reported through ReaderConfig.OnError and never stop
the reader.
*/
package eventlog

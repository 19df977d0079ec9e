// Package upload sends files and pastes to a fluffy server, tracking
// progress and supporting cancellation of the transfer in flight.
//
// # Overview
//
// The package provides three components:
//
//   - Queue: the ordered set of files picked for the next upload, with
//     size and name validation and duplicate detection by content
//   - Session: the state machine that owns a Queue, the cancellation
//     handle of the running transfer and its own rate estimator
//   - Client: the HTTP side, streaming a multipart body to the server's
//     JSON upload and paste endpoints
//
// # Sessions
//
// A Session moves through a small set of states:
//
//	StateIdle         nothing queued
//	StateFilesQueued  files picked, ready to upload
//	StateUploading    transfer in flight
//	StateCompleted    server accepted the upload
//	StateCancelled    user cancelled, or the upload failed
//
// Typical use:
//
//	session := upload.NewSession(upload.NewQueue(limits.DefaultMaxUploadBytes))
//	if err := session.Queue("cat.png", "notes.txt"); err != nil {
//	    log.Fatal(err)
//	}
//	session.OnProgress(func(p upload.Progress) {
//	    if p.HasRate {
//	        fmt.Printf("%s left\n", humanize.DurationOf(p.Remaining))
//	    }
//	})
//
//	client := upload.NewClient("https://fluffy.cc")
//	result, err := client.UploadFiles(ctx, session)
//
// Only one transfer runs per session. Cancel aborts it through its
// context and drops the progress samples, leaving the queue in place so
// Retry can start a fresh upload. A failure, including a request the
// server rejects as too large, lands in the same Cancelled state with
// Err set; nothing is retried automatically.
//
// # Progress
//
// Progress reports carry the cumulative bytes sent and the total body
// size. Once enough samples fall inside the rate window (see package
// rate) the report also carries a throughput and a projected remaining
// time; before that HasRate is false and no estimate should be shown.
package upload

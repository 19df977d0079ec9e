// Package fluffy is a Go client for fluffy, a simple file-sharing and
// pastebin web application.
//
// The root package is a facade tying together the settings in package
// config, the transfer machinery in package upload and the local record
// of past uploads in package history. Lower-level packages can be used on
// their own: linerange encodes the #L3,L7-L9 line selections of paste
// pages, rate estimates upload throughput and humanize formats sizes and
// durations for display.
//
// # Getting Started
//
// Build a client from the user's settings files and upload a file:
//
//	settings, err := config.Load(config.Paths()...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := fluffy.New(fluffy.OptionsFromSettings(settings))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session := client.NewSession()
//	if err := session.Queue("cat.png"); err != nil {
//	    log.Fatal(err)
//	}
//	result, err := client.UploadFiles(ctx, session)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Redirect)
//
// Pastes go through the same client:
//
//	result, err := client.Paste(ctx, upload.PasteRequest{
//	    Text:     "print('hello')\n",
//	    Language: "python",
//	})
//
// # History
//
// Every successful upload or paste is appended to the configured
// history.Store, using the record layout the fluffy web pages keep in
// browser storage. History failures are logged and never fail the upload
// itself. [Client.History] returns the records newest first.
//
// # Cancellation
//
// Uploads honor both their context and [upload.Session.Cancel]. Either
// aborts the transfer in flight, leaves the session in
// upload.StateCancelled with its queue intact and returns an error
// matching upload.ErrCancelled.
package fluffy

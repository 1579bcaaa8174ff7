// Package bindb provides a client for the bindb.me BIN lookup API.
//
// A BIN (bank identification number) is the first six digits of a payment
// card number. The service maps it to the card scheme, type, level, issuing
// bank and country.
//
// # Usage
//
// Create a client, optionally with an app token for the private API:
//
//	logger := zerolog.New(os.Stderr)
//	client, err := bindb.NewClient("", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rec, err := client.Lookup(ctx, 437776)
//	if rec == nil {
//		// not found
//	}
//	fmt.Println(rec.Info().Issuer)
//
// Configuration calls chain and return a new client each time:
//
//	rec, err := client.Error(true).Fields("bin", "issuer").Lookup(ctx, 437776)
//
// # BinDBQL
//
// Lookups can also be written as a small SQL-like statement. The bin is
// either a literal or a "?" placeholder bound when the query runs:
//
//	rec, err := client.Query("SELECT bin, issuer FROM bins WHERE bin = ?").Run(ctx, 437776)
//
// # Error Handling
//
// By default a failed lookup returns a nil *Record and a nil error. With
// Error(true) the failure is returned instead:
//
//   - *RemoteError: the service reported an error, for example an unknown bin
//   - *TransportError: the service could not be reached
//   - ErrQueryNotBuilt: Run without Query
//   - ErrMissingQueryParameter: placeholder query run without a value, or a
//     statement that did not parse
//   - ErrInvalidResponse: the body was not a JSON object
//
// ErrInvalidArgument is returned by NewClient and ParseToken regardless of
// error mode.
package bindb

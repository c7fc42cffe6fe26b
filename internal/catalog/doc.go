// Package catalog talks to the TikHub WeChat Channels API.
//
// SearchUsers resolves a keyword into account records and FetchHomeTimeline
// lists the media objects on an account's home page. Responses pass through a
// tagged boundary parser (parse.go) that tolerates the API's loose typing:
// identifiers and decode keys may arrive as strings or numbers, and the
// timeline list may be keyed object_list or object. Transport failures and
// application-level error codes surface as *RemoteError.
package catalog

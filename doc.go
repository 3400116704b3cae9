// Package bilibili is a Go client for Bilibili's private web APIs: direct
// message sessions, notification feeds and the audio submission pipeline.
//
// # Overview
//
// The SDK is a thin wrapper over the platform's undocumented web endpoints.
// Endpoint shapes (URL, method, auth requirements, parameters) live as
// declarative descriptors in the catalog package; this package turns a
// descriptor plus parameters into an executed request and a decoded
// response envelope. Higher level operations live in the session, notify
// and audio packages.
//
// # Quick Start
//
//	cred := bilibili.NewCredential(sessdata, biliJct,
//		bilibili.WithDedeUserID("12345"),
//		bilibili.WithBuvid3(buvid3),
//	)
//	client := bilibili.New(
//		bilibili.WithCredential(cred),
//		bilibili.WithRateLimit(2, 1),
//	)
//
//	svc := session.NewService(client)
//	receipt, err := svc.SendText(ctx, 10086, "hello")
//
// # Authentication
//
// The platform authenticates browser cookies, not tokens. A Credential is
// the relevant cookie set: SESSDATA (login session), bili_jct (csrf token),
// buvid3 (device id), DedeUserID and ac_time_value. Obtain them from a
// logged-in browser session. Each endpoint descriptor declares which parts
// it needs; missing parts fail fast with a CREDENTIAL_MISSING error before
// any network I/O.
//
// # Request Signing
//
// Some endpoints require wbi-signed queries (wts and w_rid parameters).
// Signing keys rotate daily and are fetched from the nav endpoint on
// demand, cached, and refreshed through a singleflight group, so
// concurrent calls share one refresh.
//
// # Error Handling
//
// Remote business failures (envelope code != 0) surface as *APIError with
// the platform's numeric code. Client-side failures (transport, decoding,
// missing credentials, validation) are coded *errors.Error values from
// pkg/errors. Both unwrap cleanly through errors.Is and errors.As. The
// client performs no retries; callers own any retry policy.
//
// # Rate Limiting
//
// The client sends requests as fast as callers issue them unless
// WithRateLimit is set, in which case every outgoing request waits on a
// shared token bucket. The platform's own rate limits surface as APIError
// codes such as -412.
package bilibili

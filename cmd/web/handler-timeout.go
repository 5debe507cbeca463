package main

import (
	"net/http"
	"time"
)

// timeoutBody reloads the kiosk by itself since nobody may be around to press a button.
const timeoutBody = `<!doctype html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="3;url=/">
<title>Tempo esgotado</title>
</head>
<body>
<h1>Tempo esgotado</h1>
<p>Recarregando...</p>
</body>
</html>
`

// timeoutHandler responds with 503 Service Unavailable when h does not meet the deadline.
func timeoutHandler(h http.Handler, serverTimeout time.Duration) http.Handler {
	// Shorter than the server's write timeout so that the timeout page gets written before the connection closes.
	httpHandlerTimeout := serverTimeout - 500*time.Millisecond //nolint:mnd // 500ms
	return http.TimeoutHandler(h, httpHandlerTimeout, timeoutBody)
}

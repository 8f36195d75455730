package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(ts string) string {
	return "ws" + strings.TrimPrefix(ts, "http") + "/ws"
}

func TestWebSocketJobProgress(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()
	require.Eventually(t, func() bool {
		return s.hub.ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, env := do(t, http.MethodPost, ts.URL+"/api/check/repo", RepoRequest{Username: "unfoldingWord", RepoName: "en_ult"})
	var job Job
	require.NoError(t, json.Unmarshal(env.Data, &job))

	var types []string
	var last ProgressMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for last.Type != MessageComplete {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		last = ProgressMessage{}
		require.NoError(t, json.Unmarshal(data, &last))
		assert.Equal(t, job.ID, last.JobID)
		assert.Equal(t, "repo", last.Operation)
		assert.NotEmpty(t, last.Timestamp)
		types = append(types, last.Type)
	}

	assert.Equal(t, MessageStarted, types[0])
	assert.Contains(t, types, MessageProgress)
	assert.Equal(t, 100, last.Progress)
	assert.EqualValues(t, 2, last.Data["checkedFileCount"])
}

func TestWebSocketOrigin(t *testing.T) {
	_, ts := newTestServer(t, Config{AllowedOrigins: []string{"https://door43.org"}})

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://door43.org")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), header)
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()
	require.Eventually(t, func() bool {
		return s.hub.ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	s.Close()
	assert.Zero(t, s.hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)

	// Broadcasting after the hub stopped must not block.
	s.hub.Broadcast(ProgressMessage{Type: MessageProgress})
}

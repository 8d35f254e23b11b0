package client

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/freundallein/queued/chassis/codec"
)

// fakeMessage mirrors the server-side slot: contents, current poll tag and
// the moment the message becomes visible again.
type fakeMessage struct {
	contents  []byte
	pollTag   uint32
	visibleAt time.Time
}

// fakeServer is an in-memory queued server with poll-tag fencing, used to
// exercise the client against real HTTP round trips.
type fakeServer struct {
	mu      sync.Mutex
	apiKey  string
	nextID  uint64
	nextTag uint32
	queues  map[string]map[uint64]*fakeMessage

	// transmitted visibility_timeout_secs values, per operation
	pushedVisibility []int64
	polledVisibility []int64

	srv *httptest.Server
}

func newFakeServer(apiKey string) *fakeServer {
	fake := &fakeServer{
		apiKey: apiKey,
		queues: map[string]map[uint64]*fakeMessage{},
	}
	router := mux.NewRouter()
	router.HandleFunc("/healthz", fake.handleHealthz).Methods("GET")
	router.HandleFunc("/queues", fake.handleListQueues).Methods("GET")
	router.HandleFunc("/queue/{name}", fake.handleCreateQueue).Methods("PUT")
	router.HandleFunc("/queue/{name}", fake.handleDeleteQueue).Methods("DELETE")
	router.HandleFunc("/queue/{name}/messages/push", fake.handlePush).Methods("POST")
	router.HandleFunc("/queue/{name}/messages/poll", fake.handlePoll).Methods("POST")
	router.HandleFunc("/queue/{name}/messages/update", fake.handleUpdate).Methods("POST")
	router.HandleFunc("/queue/{name}/messages/delete", fake.handleDelete).Methods("POST")
	fake.srv = httptest.NewServer(fake.authorized(router))
	return fake
}

func (f *fakeServer) URL() string {
	return f.srv.URL
}

func (f *fakeServer) Close() {
	f.srv.Close()
}

func (f *fakeServer) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.apiKey != "" && r.Header.Get("Authorization") != f.apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respond(w http.ResponseWriter, status int, value interface{}) {
	bin, err := codec.Marshal(value)
	if err != nil {
		panic(err)
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.WriteHeader(status)
	w.Write(bin)
}

func decodeBody(r *http.Request) (map[string]interface{}, error) {
	bin, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	decoded, err := codec.Decode(bin)
	if err != nil {
		return nil, err
	}
	return decoded.(map[string]interface{}), nil
}

func (f *fakeServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// vendor-prefixed media type must be accepted on responses
	bin, _ := codec.Marshal(map[string]interface{}{"version": "0.4.2"})
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(http.StatusOK)
	w.Write(bin)
}

func (f *fakeServer) handleListQueues(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.queues))
	for name := range f.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	queues := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		queues = append(queues, map[string]interface{}{"name": name})
	}
	respond(w, http.StatusOK, map[string]interface{}{"queues": queues})
}

func (f *fakeServer) handleCreateQueue(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := mux.Vars(r)["name"]
	if _, ok := f.queues[name]; ok {
		respond(w, http.StatusConflict, map[string]interface{}{"error": "queue already exists"})
		return
	}
	f.queues[name] = map[uint64]*fakeMessage{}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeServer) handleDeleteQueue(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := mux.Vars(r)["name"]
	if _, ok := f.queues[name]; !ok {
		respond(w, http.StatusNotFound, map[string]interface{}{"error": "queue not found"})
		return
	}
	delete(f.queues, name)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeServer) queueFor(w http.ResponseWriter, r *http.Request) (map[uint64]*fakeMessage, bool) {
	name := mux.Vars(r)["name"]
	q, ok := f.queues[name]
	if !ok {
		respond(w, http.StatusNotFound, map[string]interface{}{"error": "queue not found"})
		return nil, false
	}
	return q, true
}

func (f *fakeServer) handlePush(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queueFor(w, r)
	if !ok {
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid body"})
		return
	}
	ids := []uint64{}
	for _, item := range body["messages"].([]interface{}) {
		entry := item.(map[string]interface{})
		secs := asInt64(entry["visibility_timeout_secs"])
		f.pushedVisibility = append(f.pushedVisibility, secs)
		if secs < 0 {
			respond(w, http.StatusBadRequest, map[string]interface{}{"error": "visibility timeout is negative"})
			return
		}
		id := f.nextID
		f.nextID++
		q[id] = &fakeMessage{
			contents:  entry["contents"].([]byte),
			visibleAt: time.Now().Add(time.Duration(secs) * time.Second),
		}
		ids = append(ids, id)
	}
	respond(w, http.StatusOK, map[string]interface{}{"ids": ids})
}

func (f *fakeServer) handlePoll(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queueFor(w, r)
	if !ok {
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid body"})
		return
	}
	count := asInt64(body["count"])
	secs := asInt64(body["visibility_timeout_secs"])
	f.polledVisibility = append(f.polledVisibility, secs)

	ids := make([]uint64, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := time.Now()
	messages := []map[string]interface{}{}
	for _, id := range ids {
		if int64(len(messages)) == count {
			break
		}
		msg := q[id]
		if msg.visibleAt.After(now) {
			continue
		}
		f.nextTag++
		msg.pollTag = f.nextTag
		msg.visibleAt = now.Add(time.Duration(secs) * time.Second)
		messages = append(messages, map[string]interface{}{
			"contents": msg.contents,
			"id":       id,
			"poll_tag": msg.pollTag,
		})
	}
	respond(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (f *fakeServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queueFor(w, r)
	if !ok {
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid body"})
		return
	}
	id := uint64(asInt64(body["id"]))
	pollTag := uint32(asInt64(body["poll_tag"]))
	msg, ok := q[id]
	if !ok || msg.pollTag != pollTag {
		respond(w, http.StatusBadRequest, map[string]interface{}{
			"error":         "message not found",
			"error_details": map[string]interface{}{"id": id},
		})
		return
	}
	f.nextTag++
	msg.pollTag = f.nextTag
	msg.visibleAt = time.Now().Add(time.Duration(asInt64(body["visibility_timeout_secs"])) * time.Second)
	respond(w, http.StatusOK, map[string]interface{}{"new_poll_tag": msg.pollTag})
}

func (f *fakeServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queueFor(w, r)
	if !ok {
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid body"})
		return
	}
	for _, item := range body["messages"].([]interface{}) {
		entry := item.(map[string]interface{})
		id := uint64(asInt64(entry["id"]))
		pollTag := uint32(asInt64(entry["poll_tag"]))
		msg, ok := q[id]
		if !ok || msg.pollTag != pollTag {
			respond(w, http.StatusBadRequest, map[string]interface{}{
				"error":         "message not found",
				"error_details": map[string]interface{}{"id": id},
			})
			return
		}
		delete(q, id)
	}
	w.WriteHeader(http.StatusOK)
}

func asInt64(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	}
	return 0
}

package gym

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeGymServer serves just enough of the gym-http-api protocol for
// one 2x2 grayscale environment instance with 4 discrete actions
func fakeGymServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/envs/", func(w http.ResponseWriter,
		r *http.Request) {
		switch r.URL.Path {
		case "/v1/envs/":
			var body struct {
				EnvID string `json:"env_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if body.EnvID != "Breakout-v0" {
				http.Error(w, "unknown env", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"instance_id": "abc123"}`)

		case "/v1/envs/abc123/reset/":
			fmt.Fprint(w, `{"observation": [[0, 10], [20, 30]]}`)

		case "/v1/envs/abc123/step/":
			var body struct {
				Action int `json:"action"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			done := body.Action == 3
			fmt.Fprintf(w,
				`{"observation": [[1, 2], [3, 4]], "reward": 1.5, "done": %v}`,
				done)

		case "/v1/envs/abc123/action_space/":
			fmt.Fprint(w, `{"info": {"name": "Discrete", "n": 4}}`)

		case "/v1/envs/abc123/observation_space/":
			fmt.Fprint(w,
				`{"info": {"name": "Box", "shape": [2, 2],
				"low": [0, 0, 0, 0], "high": [255, 255, 255, 255]}}`)

		case "/v1/envs/abc123/close/":
			fmt.Fprint(w, `{}`)

		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	return httptest.NewServer(mux)
}

func TestGymEnvLifecycle(t *testing.T) {
	server := fakeGymServer(t)
	defer server.Close()

	env, err := New("Breakout-v0", server.URL, 0.99)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	defer env.Close()

	numActions, err := env.ActionSpec().NumActions()
	if err != nil {
		t.Fatalf("could not count actions: %v", err)
	}
	if numActions != 4 {
		t.Errorf("wrong number of actions\n\twant(%v)\n\thave(%v)", 4,
			numActions)
	}

	obsSpec := env.ObservationSpec()
	if obsSpec.Shape.Len() != 4 {
		t.Errorf("wrong observation length\n\twant(%v)\n\thave(%v)", 4,
			obsSpec.Shape.Len())
	}
	if obsSpec.UpperBound.AtVec(3) != 255 {
		t.Errorf("wrong pixel upper bound\n\twant(%v)\n\thave(%v)", 255.0,
			obsSpec.UpperBound.AtVec(3))
	}

	first, err := env.Reset()
	if err != nil {
		t.Fatalf("could not reset environment: %v", err)
	}
	if !first.First() {
		t.Error("reset did not return a first timestep")
	}

	// Nested pixel rows arrive flattened in row-major order
	want := []float64{0, 10, 20, 30}
	got := make([]float64, first.Observation.Len())
	for i := range got {
		got[i] = first.Observation.AtVec(i)
	}
	if !cmp.Equal(want, got) {
		t.Errorf("wrong initial observation\n\twant(%v)\n\thave(%v)",
			want, got)
	}

	step, err := env.Step(0)
	if err != nil {
		t.Fatalf("could not step environment: %v", err)
	}
	if step.Reward != 1.5 {
		t.Errorf("wrong reward\n\twant(%v)\n\thave(%v)", 1.5, step.Reward)
	}
	if step.Last() {
		t.Error("episode ended before the terminal action")
	}
	if step.Number != 1 {
		t.Errorf("wrong step number\n\twant(%v)\n\thave(%v)", 1,
			step.Number)
	}

	// Action 3 ends the episode on the fake server
	step, err = env.Step(3)
	if err != nil {
		t.Fatalf("could not step environment: %v", err)
	}
	if !step.Last() {
		t.Error("done flag did not end the episode")
	}
	if _, err := env.Step(0); err == nil {
		t.Error("expected error stepping a finished episode but got none")
	}
}

func TestClientKeepsBaseURLPathPrefix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gym/v1/envs/", func(w http.ResponseWriter,
		r *http.Request) {
		if r.URL.Path != "/gym/v1/envs/" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"instance_id": "abc123"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL + "/gym")
	if err != nil {
		t.Fatalf("could not create client: %v", err)
	}

	id, err := client.Create("Breakout-v0")
	if err != nil {
		t.Fatalf("could not create instance behind path prefix: %v", err)
	}
	if id != "abc123" {
		t.Errorf("wrong instance ID\n\twant(%v)\n\thave(%v)",
			InstanceID("abc123"), id)
	}
}

func TestGymEnvRejectsUnknownEnv(t *testing.T) {
	server := fakeGymServer(t)
	defer server.Close()

	if _, err := New("Pong-v0", server.URL, 0.99); err == nil {
		t.Error("expected error for unknown environment ID but got none")
	}
}

func TestFlattenRejectsMalformedObservation(t *testing.T) {
	if _, err := flatten(json.RawMessage(`{"not": "pixels"}`)); err == nil {
		t.Error("expected error for non-array observation but got none")
	}

	flat, err := flatten(json.RawMessage(`[1, [2, 3], [[4]]]`))
	if err != nil {
		t.Fatalf("could not flatten ragged nesting: %v", err)
	}
	if !cmp.Equal([]float64{1, 2, 3, 4}, flat) {
		t.Errorf("wrong flattening\n\twant(%v)\n\thave(%v)",
			[]float64{1, 2, 3, 4}, flat)
	}
}

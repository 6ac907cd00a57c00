package gym

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Client speaks the gym-http-api JSON protocol to a remote server
// hosting OpenAI Gym environments. Each environment instance created
// through the client is addressed by an opaque instance ID.
type Client struct {
	base *url.URL
	http *http.Client
}

// InstanceID identifies one environment instance on the server
type InstanceID string

// Space describes an action or observation space as reported by the
// server
type Space struct {
	Name  string    `json:"name"`
	N     int       `json:"n"`
	Shape []int     `json:"shape"`
	Low   []float64 `json:"low"`
	High  []float64 `json:"high"`
}

// NewClient returns a Client for a gym-http-api server at baseURL
func NewClient(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("newclient: invalid base URL: %v", err)
	}
	return &Client{base: base, http: http.DefaultClient}, nil
}

// Create creates a new environment instance on the server and returns
// its instance ID
func (c *Client) Create(envID string) (InstanceID, error) {
	var reply struct {
		InstanceID InstanceID `json:"instance_id"`
	}

	body := map[string]string{"env_id": envID}
	if err := c.post("/v1/envs/", body, &reply); err != nil {
		return "", fmt.Errorf("create: %v", err)
	}
	return reply.InstanceID, nil
}

// Reset resets an environment instance and returns the flattened
// initial observation
func (c *Client) Reset(id InstanceID) ([]float64, error) {
	var reply struct {
		Observation json.RawMessage `json:"observation"`
	}

	path := fmt.Sprintf("/v1/envs/%v/reset/", id)
	if err := c.post(path, struct{}{}, &reply); err != nil {
		return nil, fmt.Errorf("reset: %v", err)
	}

	obs, err := flatten(reply.Observation)
	if err != nil {
		return nil, fmt.Errorf("reset: malformed observation: %v", err)
	}
	return obs, nil
}

// Step applies a discrete action to an environment instance, returning
// the flattened observation, the reward, and whether the episode ended
func (c *Client) Step(id InstanceID, action int) ([]float64, float64, bool,
	error) {
	var reply struct {
		Observation json.RawMessage `json:"observation"`
		Reward      float64         `json:"reward"`
		Done        bool            `json:"done"`
	}

	body := map[string]interface{}{"action": action, "render": false}
	path := fmt.Sprintf("/v1/envs/%v/step/", id)
	if err := c.post(path, body, &reply); err != nil {
		return nil, 0, true, fmt.Errorf("step: %v", err)
	}

	obs, err := flatten(reply.Observation)
	if err != nil {
		return nil, 0, true, fmt.Errorf("step: malformed observation: %v", err)
	}
	return obs, reply.Reward, reply.Done, nil
}

// ActionSpace returns the action space of an environment instance
func (c *Client) ActionSpace(id InstanceID) (Space, error) {
	return c.space(id, "action_space")
}

// ObservationSpace returns the observation space of an environment
// instance
func (c *Client) ObservationSpace(id InstanceID) (Space, error) {
	return c.space(id, "observation_space")
}

// Close shuts down an environment instance on the server
func (c *Client) Close(id InstanceID) error {
	path := fmt.Sprintf("/v1/envs/%v/close/", id)
	if err := c.post(path, struct{}{}, &struct{}{}); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}

func (c *Client) space(id InstanceID, kind string) (Space, error) {
	var reply struct {
		Info Space `json:"info"`
	}

	path := fmt.Sprintf("/v1/envs/%v/%v/", id, kind)
	if err := c.get(path, &reply); err != nil {
		return Space{}, fmt.Errorf("space: %v", err)
	}
	return reply.Info, nil
}

// endpoint appends path to the base URL, keeping any path prefix the
// server is mounted under and the trailing slash the protocol expects
func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

func (c *Client) post(path string, body, reply interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not encode request: %v", err)
	}

	resp, err := c.http.Post(c.endpoint(path), "application/json",
		bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("could not POST %v: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %v: server returned %v", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(reply)
}

func (c *Client) get(path string, reply interface{}) error {
	resp, err := c.http.Get(c.endpoint(path))
	if err != nil {
		return fmt.Errorf("could not GET %v: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %v: server returned %v", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(reply)
}

// flatten decodes an observation of arbitrarily nested JSON arrays
// into a flat float64 slice in row-major order
func flatten(raw json.RawMessage) ([]float64, error) {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}

	var out []float64
	var walk func(v interface{}) error
	walk = func(v interface{}) error {
		switch elem := v.(type) {
		case float64:
			out = append(out, elem)
		case []interface{}:
			for _, inner := range elem {
				if err := walk(inner); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unexpected element of type %T", v)
		}
		return nil
	}

	if err := walk(value); err != nil {
		return nil, err
	}
	return out, nil
}

package robot

import "fmt"

// CreateMove issues one motion command and returns the platform's move id.
func (c *Client) CreateMove(req *MoveRequest) (string, error) {
	var created MoveCreated
	if err := c.post("/moves", req, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("robot create move: empty move id")
	}
	return created.ID, nil
}

// GetMove polls a move's current state.
func (c *Client) GetMove(id string) (*MoveDetail, error) {
	var detail MoveDetail
	if err := c.get("/moves/"+id, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CancelMove asks the platform to cancel a queued or running move.
// Motion already underway may still finish; the polled state is the
// source of truth.
func (c *Client) CancelMove(id string) error {
	return c.patch("/moves/"+id, map[string]string{"state": string(StateCancelled)}, nil)
}

// GetStatus fetches the robot's chassis status.
func (c *Client) GetStatus() (*Status, error) {
	var st Status
	if err := c.get("/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Ping checks connectivity to the robot API.
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

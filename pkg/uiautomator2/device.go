package uiautomator2

import (
	"encoding/json"
	"net/http"
)

// Back presses the back button.
func (c *Client) Back() error {
	_, err := c.request(http.MethodPost, c.sessionPath("/back"), nil)
	return err
}

// PressKeyCode sends a key event.
func (c *Client) PressKeyCode(keyCode int) error {
	_, err := c.request(http.MethodPost, c.sessionPath("/appium/device/press_keycode"), KeyCodeRequest{KeyCode: keyCode})
	return err
}

// Source returns the UI hierarchy as XML.
func (c *Client) Source() (string, error) {
	data, err := c.request(http.MethodGet, c.sessionPath("/source"), nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

// GetDeviceInfo returns device details.
func (c *Client) GetDeviceInfo() (*DeviceInfo, error) {
	data, err := c.request(http.MethodGet, c.sessionPath("/appium/device/info"), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Value DeviceInfo `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp.Value, nil
}

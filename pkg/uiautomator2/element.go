package uiautomator2

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Element represents a UI element on the device.
type Element struct {
	id     string
	client *Client
}

// ID returns the element ID.
func (e *Element) ID() string {
	return e.id
}

type elementResponse struct {
	Value struct {
		ELEMENT string `json:"ELEMENT"`
	} `json:"value"`
}

// FindElement finds a single element.
func (c *Client) FindElement(strategy, selector string) (*Element, error) {
	req := FindElementRequest{Strategy: strategy, Selector: selector}
	data, err := c.request(http.MethodPost, c.sessionPath("/element"), req)
	if err != nil {
		return nil, err
	}

	var resp elementResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse element response: %w", err)
	}
	if resp.Value.ELEMENT == "" {
		return nil, fmt.Errorf("element not found: %s=%s", strategy, selector)
	}
	return &Element{id: resp.Value.ELEMENT, client: c}, nil
}

// ActiveElement returns the currently focused element.
func (c *Client) ActiveElement() (*Element, error) {
	data, err := c.request(http.MethodGet, c.sessionPath("/element/active"), nil)
	if err != nil {
		return nil, err
	}

	var resp elementResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if resp.Value.ELEMENT == "" {
		return nil, fmt.Errorf("no active element")
	}
	return &Element{id: resp.Value.ELEMENT, client: c}, nil
}

func (e *Element) path(action string) string {
	return e.client.sessionPath("/element/" + e.id + action)
}

// Click taps the element.
func (e *Element) Click() error {
	_, err := e.client.request(http.MethodPost, e.path("/click"), nil)
	return err
}

// Clear clears the element's text.
func (e *Element) Clear() error {
	_, err := e.client.request(http.MethodPost, e.path("/clear"), nil)
	return err
}

// SendKeys types text into the element.
func (e *Element) SendKeys(text string) error {
	_, err := e.client.request(http.MethodPost, e.path("/value"), InputTextRequest{Text: text})
	return err
}

// Text returns the element's text content.
func (e *Element) Text() (string, error) {
	data, err := e.client.request(http.MethodGet, e.path("/text"), nil)
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

// Rect returns the element's bounds.
func (e *Element) Rect() (ElementRect, error) {
	data, err := e.client.request(http.MethodGet, e.path("/rect"), nil)
	if err != nil {
		return ElementRect{}, err
	}

	var resp struct {
		Value ElementRect `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return ElementRect{}, err
	}
	return resp.Value, nil
}

package uiautomator2

import (
	"context"
	"net/http"
)

// Click taps at screen coordinates.
func (c *Client) Click(x, y int) error {
	return c.ClickContext(context.Background(), x, y)
}

// ClickContext taps at screen coordinates unless ctx is done first.
func (c *Client) ClickContext(ctx context.Context, x, y int) error {
	req := ClickRequest{Offset: &PointModel{X: x, Y: y}}
	_, err := c.requestContext(ctx, http.MethodPost, c.sessionPath("/appium/gestures/click"), req)
	return err
}

// ClickElement taps the center of an element.
func (c *Client) ClickElement(elementID string) error {
	req := ClickRequest{Origin: &ElementModel{ELEMENT: elementID}}
	_, err := c.request(http.MethodPost, c.sessionPath("/appium/gestures/click"), req)
	return err
}

// Scroll scrolls within an element. Direction "down" reveals content
// further down the list.
func (c *Client) Scroll(elementID, direction string, percent float64, speed int) error {
	req := ScrollRequest{
		Origin:    &ElementModel{ELEMENT: elementID},
		Direction: direction,
		Percent:   percent,
		Speed:     speed,
	}
	_, err := c.request(http.MethodPost, c.sessionPath("/appium/gestures/scroll"), req)
	return err
}

// ScrollInArea scrolls within a screen rectangle.
func (c *Client) ScrollInArea(area RectModel, direction string, percent float64, speed int) error {
	req := ScrollRequest{
		Area:      &area,
		Direction: direction,
		Percent:   percent,
		Speed:     speed,
	}
	_, err := c.request(http.MethodPost, c.sessionPath("/appium/gestures/scroll"), req)
	return err
}

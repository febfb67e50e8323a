package handler

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"
)

// errNoUser is returned by getUserID when no usable user identity is
// present in the request context.
var errNoUser = errors.New("no authenticated user")

// getUserID extracts the authenticated user's ID from the Echo
// context.  The JWT middleware stores the token subject under
// "user_id"; depending on how the issuer encoded it, the claim
// arrives as a string or a JSON number.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case string:
        id, err := strconv.ParseUint(t, 10, 64)
        if err != nil || id == 0 {
            return 0, errNoUser
        }
        return id, nil
    case float64:
        if t <= 0 {
            return 0, errNoUser
        }
        return uint64(t), nil
    default:
        return 0, errNoUser
    }
}

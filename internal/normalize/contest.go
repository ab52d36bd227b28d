package normalize

import (
	"strings"

	"github.com/shackmatrix/marquee/internal/model"
)

// Contest builds the status toggle for a contest transition. Contest
// transitions never produce AlertEvents; they only change what the
// contest card renders ("ON THE AIR").
func Contest(id, name string, active bool) (*model.ContestStatus, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &model.MalformedEventError{Feed: "contest", Reason: "missing contest id"}
	}
	if name == "" {
		name = id
	}
	return &model.ContestStatus{ContestID: id, Name: name, Active: active}, nil
}

package target

import (
	"bytes"
	"encoding/json"
)

// flexID accepts identifiers encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// ptr returns nil for an empty id.
func (f flexID) ptr() *string {
	if f == "" {
		return nil
	}
	s := string(f)
	return &s
}

type apiFolder struct {
	ID             flexID `json:"id"`
	Name           string `json:"name"`
	ParentFolderID flexID `json:"parent_folder_id"`
}

type apiFolderList struct {
	Data []apiFolder `json:"data"`
}

type createFolderRequest struct {
	Name           string  `json:"name"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
}

type apiVideo struct {
	ID         flexID `json:"id"`
	Title      string `json:"title"`
	FolderID   flexID `json:"folder_id"`
	ExternalID flexID `json:"external_id"`
}

type apiVideoList struct {
	Data []apiVideo `json:"data"`
}

type fetchVideoRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	FolderID string `json:"folder_id"`
}

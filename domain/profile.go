package domain

import (
	"time"

	"github.com/gocql/gocql"
)

// Profile identifies a user in the friend graph. Stored as a user-defined
// type inside the friend and friend-request sets.
type Profile struct {
	Username string `cql:"username" json:"username"`
	Name     string `cql:"name" json:"name"`
}

// FriendProfile is a Profile plus the moment the friendship was established.
type FriendProfile struct {
	Username            string    `cql:"username" json:"username"`
	Name                string    `cql:"name" json:"name"`
	FriendshipStartedOn time.Time `cql:"friendship_started_on" json:"friendshipStartedOn"`
}

// Profile returns the plain profile half of a FriendProfile.
func (f FriendProfile) Profile() Profile {
	return Profile{Username: f.Username, Name: f.Name}
}

var (
	_ gocql.UDTMarshaler   = Profile{}
	_ gocql.UDTMarshaler   = FriendProfile{}
	_ gocql.UDTUnmarshaler = (*Profile)(nil)
	_ gocql.UDTUnmarshaler = (*FriendProfile)(nil)
)

func (p Profile) MarshalUDT(name string, info gocql.TypeInfo) ([]byte, error) {
	switch name {
	case "username":
		return gocql.Marshal(info, p.Username)
	case "name":
		return gocql.Marshal(info, p.Name)
	}
	return nil, nil
}

func (p *Profile) UnmarshalUDT(name string, info gocql.TypeInfo, data []byte) error {
	switch name {
	case "username":
		return gocql.Unmarshal(info, data, &p.Username)
	case "name":
		return gocql.Unmarshal(info, data, &p.Name)
	}
	return nil
}

func (f FriendProfile) MarshalUDT(name string, info gocql.TypeInfo) ([]byte, error) {
	switch name {
	case "username":
		return gocql.Marshal(info, f.Username)
	case "name":
		return gocql.Marshal(info, f.Name)
	case "friendship_started_on":
		return gocql.Marshal(info, f.FriendshipStartedOn)
	}
	return nil, nil
}

func (f *FriendProfile) UnmarshalUDT(name string, info gocql.TypeInfo, data []byte) error {
	switch name {
	case "username":
		return gocql.Unmarshal(info, data, &f.Username)
	case "name":
		return gocql.Unmarshal(info, data, &f.Name)
	case "friendship_started_on":
		return gocql.Unmarshal(info, data, &f.FriendshipStartedOn)
	}
	return nil
}

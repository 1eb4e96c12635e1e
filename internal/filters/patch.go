package filters

import "github.com/biyonik/jobly-api/pkg/validation"

// CompanyPatch lists the fields PATCH /companies/{handle} may change. The
// handle is immutable.
var CompanyPatch = validation.PatchSchema{
	"name":         {Kind: validation.KindString, Tag: "min=1"},
	"description":  {Kind: validation.KindString},
	"numEmployees": {Kind: validation.KindInteger, Tag: "min=0", Nullable: true},
	"logoUrl":      {Kind: validation.KindString, Tag: "url", Nullable: true},
}

// JobPatch lists the fields PATCH /jobs/{id} may change. A job never moves
// to another company.
var JobPatch = validation.PatchSchema{
	"title":  {Kind: validation.KindString, Tag: "min=1"},
	"salary": {Kind: validation.KindInteger, Tag: "min=0", Nullable: true},
	"equity": {Kind: validation.KindString, Tag: "equity", Nullable: true},
}

// UserPatch lists the fields a user may change on their own account.
var UserPatch = validation.PatchSchema{
	"firstName": {Kind: validation.KindString, Tag: "min=1,max=30"},
	"lastName":  {Kind: validation.KindString, Tag: "min=1,max=30"},
	"password":  {Kind: validation.KindString, Tag: "min=5,max=20"},
	"email":     {Kind: validation.KindString, Tag: "min=6,max=60,email"},
}

// AdminUserPatch additionally lets admins grant or revoke admin rights.
var AdminUserPatch = func() validation.PatchSchema {
	s := validation.PatchSchema{"isAdmin": {Kind: validation.KindBoolean}}
	for k, v := range UserPatch {
		s[k] = v
	}
	return s
}()

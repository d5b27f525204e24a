package models

type Admin struct {
	Credentials
}

func (a *Admin) Account() *Credentials { return &a.Credentials }

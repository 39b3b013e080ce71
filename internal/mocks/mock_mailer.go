package mocks

import "github.com/stretchr/testify/mock"

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	args := m.Called(recipient, templateFile, data)
	return args.Error(0)
}

package mocks

import "github.com/stretchr/testify/mock"

type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) SendActivationMail(email, name, link string) error {
	args := m.Called(email, name, link)
	return args.Error(0)
}

func (m *MockMailManager) SendRecoveryMail(email, link string) error {
	args := m.Called(email, link)
	return args.Error(0)
}

func (m *MockMailManager) SendNewPasswordMail(email, password string) error {
	args := m.Called(email, password)
	return args.Error(0)
}

func (m *MockMailManager) SendBroadcastMail(subject, content string, recipients []string) ([]string, error) {
	args := m.Called(subject, content, recipients)
	failed, _ := args.Get(0).([]string)
	return failed, args.Error(1)
}

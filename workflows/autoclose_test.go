package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"goa.design/conductor/activities"
)

func TestAutoCloseWorkflowReportsSweep(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(AutoCloseWorkflow)

	maint := activities.NewMaintenance(nil)
	env.OnActivity(maint.AutoCloseInactiveTickets, mock.Anything, activities.AutoCloseInput{InactivityMinutes: 30}).
		Return(&activities.AutoCloseReport{
			Evaluated:         5,
			Closed:            2,
			ClosedTicketIDs:   []string{"TKT-7", "TKT-9"},
			InactivityMinutes: 30,
		}, nil).Once()

	env.ExecuteWorkflow(AutoCloseWorkflow, activities.AutoCloseInput{InactivityMinutes: 30})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report activities.AutoCloseReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.Equal(t, 2, report.Closed)
	assert.Equal(t, []string{"TKT-7", "TKT-9"}, report.ClosedTicketIDs)
	env.AssertExpectations(t)
}

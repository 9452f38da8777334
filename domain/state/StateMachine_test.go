package state_test

import (
	"cleanops/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReportStateMachine", func() {
	Describe("AvailableTransitions", func() {
		Context("worker actor", func() {
			It("should only allow submit and cancel from draft", func() {
				ts := state.ReportStateMachine.AvailableTransitions(state.Draft, "", state.ActorWorker)
				names := []string{}
				for _, t := range ts {
					names = append(names, t.Name)
				}
				Expect(names).To(ConsistOf("submit", "cancel"))
			})

			It("should not allow any transition out of submitted", func() {
				Expect(state.ReportStateMachine.AvailableTransitions(state.Submitted, "", state.ActorWorker)).To(BeEmpty())
			})

			It("should not allow approving", func() {
				Expect(state.ReportStateMachine.AvailableTransitions("", state.Approved, state.ActorWorker)).To(BeEmpty())
			})
		})

		Context("admin actor", func() {
			It("should allow approve from submitted and triaged", func() {
				ts := state.ReportStateMachine.AvailableTransitions("", state.Approved, state.ActorAdmin)
				froms := []state.State{}
				for _, t := range ts {
					froms = append(froms, t.From)
				}
				Expect(froms).To(ConsistOf(state.Submitted, state.Triaged))
			})

			It("should require a reason on every reject transition", func() {
				ts := state.ReportStateMachine.AvailableTransitions("", state.Rejected, state.ActorAdmin)
				Expect(ts).ToNot(BeEmpty())
				for _, t := range ts {
					Expect(t.ReasonRequired).To(BeTrue())
				}
			})

			It("should not allow transitions out of locked states", func() {
				for _, locked := range []state.State{state.Approved, state.Archived, state.Canceled} {
					Expect(state.ReportStateMachine.AvailableTransitions(locked, "", state.ActorAdmin)).To(BeEmpty())
				}
			})
		})
	})

	Describe("IsLocked", func() {
		It("should lock approved, archived and canceled", func() {
			Expect(state.IsLocked(state.Approved)).To(BeTrue())
			Expect(state.IsLocked(state.Archived)).To(BeTrue())
			Expect(state.IsLocked(state.Canceled)).To(BeTrue())
		})

		It("should keep review states open", func() {
			Expect(state.IsLocked(state.Draft)).To(BeFalse())
			Expect(state.IsLocked(state.Submitted)).To(BeFalse())
			Expect(state.IsLocked(state.Triaged)).To(BeFalse())
			Expect(state.IsLocked(state.Rejected)).To(BeFalse())
		})
	})

	Describe("IsArchivable", func() {
		It("should allow archiving approved and rejected reports only", func() {
			Expect(state.IsArchivable(state.Approved)).To(BeTrue())
			Expect(state.IsArchivable(state.Rejected)).To(BeTrue())
			Expect(state.IsArchivable(state.Submitted)).To(BeFalse())
			Expect(state.IsArchivable(state.Archived)).To(BeFalse())
		})
	})

	Describe("FindState", func() {
		It("should resolve known state names", func() {
			s, found := state.ReportStateMachine.FindState("triaged")
			Expect(found).To(BeTrue())
			Expect(s).To(Equal(state.Triaged))
		})

		It("should report unknown names", func() {
			_, found := state.ReportStateMachine.FindState("pending")
			Expect(found).To(BeFalse())
		})
	})
})

package notify

import (
	"context"
	"fmt"

	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

// CorrespondenceQueue accepts sent letter artifacts for asynchronous
// persistence into the case record. Enqueue never blocks dispatch.
type CorrespondenceQueue interface {
	Enqueue(caseID string, pdf []byte, meta types.CorrespondenceMeta)
}

// OrchestratorConfig wires the orchestrator's collaborators.
type OrchestratorConfig struct {
	Evaluator      *Evaluator
	Gate           *Gate
	Handler        *DispatchHandler
	Reminders      *ReminderScheduler
	Registry       types.TemplateRegistry
	Sender         types.NotificationSender
	Composer       *Composer
	Scheduler      types.JobScheduler
	Correspondence CorrespondenceQueue
	Metrics        NotificationMetrics
	Logger         types.Logger
	Clock          types.Clock
}

// Orchestrator drives the full dispatch flow for one case event: the
// out-of-hours gate, per-role per-channel sends, bundled letters,
// old-subscription re-notification, and reminder scheduling.
type Orchestrator struct {
	eval           *Evaluator
	gate           *Gate
	handler        *DispatchHandler
	reminders      *ReminderScheduler
	registry       types.TemplateRegistry
	sender         types.NotificationSender
	composer       *Composer
	scheduler      types.JobScheduler
	correspondence CorrespondenceQueue
	metrics        NotificationMetrics
	logger         types.Logger
	clock          types.Clock
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Orchestrator{
		eval:           cfg.Evaluator,
		gate:           cfg.Gate,
		handler:        cfg.Handler,
		reminders:      cfg.Reminders,
		registry:       cfg.Registry,
		sender:         cfg.Sender,
		composer:       cfg.Composer,
		scheduler:      cfg.Scheduler,
		correspondence: cfg.Correspondence,
		metrics:        metrics,
		logger:         cfg.Logger,
		clock:          cfg.Clock,
	}
}

// Dispatch processes a case event end to end. Events arriving outside the
// business-hours window are deferred as a single scheduled job carrying the
// whole context; nothing is sent until that job fires. Provider outages abort
// immediately and propagate; per-send rejections never do.
func (o *Orchestrator) Dispatch(ctx context.Context, nctx Context) error {
	event := nctx.Event()
	log := o.logger.With("case_id", nctx.CaseID(), "event", string(event))

	if !events.Known(event) {
		log.Warn("unknown event, nothing dispatched")
		return nil
	}

	now := o.clock.Now()
	if o.gate.ShouldDefer(event, now) {
		payload, err := EncodeDispatchJob(nctx)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalUnexpected,
				"failed to encode deferred dispatch", err)
		}
		job := types.Job{
			Group:     nctx.JobGroup(),
			Name:      string(event),
			Kind:      types.JobKindDispatch,
			Payload:   payload,
			TriggerAt: o.gate.NextWindowStart(now),
		}
		// Cancel-then-schedule: callback delivery is at-least-once, and a
		// redelivered event must leave exactly one deferred job in the group.
		if err := o.scheduler.CancelGroup(ctx, job.Group); err != nil {
			return types.NewAppError(types.ErrCodeUpstreamScheduler,
				"failed to replace deferred dispatch", err)
		}
		if err := o.scheduler.Schedule(ctx, job); err != nil {
			return types.NewAppError(types.ErrCodeUpstreamScheduler,
				"failed to defer dispatch", err)
		}
		o.metrics.RecordJobScheduled(ctx, string(event))
		log.Info("dispatch deferred out of hours", "trigger_at", job.TriggerAt)
		return nil
	}

	for _, role := range types.AllRoles {
		if err := o.dispatchRole(ctx, nctx, role); err != nil {
			return err
		}
	}

	if events.FlagsFor(event).BundledLetter {
		if err := o.dispatchBundled(ctx, nctx); err != nil {
			return err
		}
	}

	if events.FlagsFor(event).SubscriptionUpdate {
		if err := o.notifyOldSubscriptions(ctx, nctx); err != nil {
			return err
		}
	}

	o.reminders.RunAll(ctx, nctx)
	return nil
}

// dispatchRole sends the email, SMS, and plain-letter channels for one role.
func (o *Orchestrator) dispatchRole(ctx context.Context, nctx Context, role types.SubscriptionRole) error {
	event := nctx.Event()
	if !o.eval.IsEligible(nctx, role, event) {
		return nil
	}

	res, err := o.Resolve(nctx, role, event)
	if err != nil {
		o.logger.Warn("no template resolved, skipping role",
			"case_id", nctx.CaseID(),
			"event", string(event),
			"role", string(role),
			"error", err.Error(),
		)
		return nil
	}

	sub := nctx.New().Subscriptions.ForRole(role)

	if sub.WantsEmail() && res.Template.EmailTemplateID != "" {
		req := SendRequest{
			Channel:      types.ChannelEmail,
			TemplateID:   res.Template.EmailTemplateID,
			Destination:  res.Destination,
			Placeholders: res.Placeholders,
			Reference:    res.Reference,
			Attempt:      1,
		}
		if _, err := o.handler.Send(ctx, nctx, req, o.handler.SendFuncFor(req)); err != nil {
			return err
		}
	}

	if sub.WantsSMS() {
		for _, smsTemplateID := range res.Template.SmsTemplateIDs {
			req := SendRequest{
				Channel:      types.ChannelSMS,
				TemplateID:   smsTemplateID,
				Destination:  res.Destination,
				Placeholders: res.Placeholders,
				Reference:    res.Reference,
				Attempt:      1,
			}
			if _, err := o.handler.Send(ctx, nctx, req, o.handler.SendFuncFor(req)); err != nil {
				return err
			}
		}
	}

	// Plain letters bypass subscription state entirely: there is no letter
	// subscription flag, so a resolved letter template plus a usable address
	// is enough. Bundled letters go through dispatchBundled instead.
	f := events.FlagsFor(event)
	if !f.BundledLetter && res.Template.LetterTemplateID != "" && !res.Destination.Address.IsEmpty() {
		req := SendRequest{
			Channel:      types.ChannelLetter,
			TemplateID:   res.Template.LetterTemplateID,
			Destination:  res.Destination,
			Placeholders: res.Placeholders,
			Reference:    res.Reference,
			Attempt:      1,
		}
		if _, err := o.handler.Send(ctx, nctx, req, o.handler.SendFuncFor(req)); err != nil {
			return err
		}
	}

	return nil
}

// dispatchBundled composes and sends the bundled letters for the event. Each
// recipient's copy is independent; a composition failure aborts the event
// since mandatory letters must not be silently skipped.
func (o *Orchestrator) dispatchBundled(ctx context.Context, nctx Context) error {
	letters, err := o.composeBundle(ctx, nctx)
	if err != nil {
		return err
	}

	for _, letter := range letters {
		if letter.Address.IsEmpty() {
			o.logger.Warn("bundled letter recipient has no postal address",
				"case_id", nctx.CaseID(),
				"event", string(nctx.Event()),
				"recipient", letter.RecipientName,
			)
			continue
		}
		if err := o.sendPrecompiled(ctx, nctx, letter, 1); err != nil {
			return err
		}
	}
	return nil
}

// composeBundle builds the event's bundled letters, letting a
// registry-resolved docmosis template override the event's fixed cover. No
// resolved template is fine: the event default applies.
func (o *Orchestrator) composeBundle(ctx context.Context, nctx Context) ([]Letter, error) {
	cover := ""
	if res, err := o.Resolve(nctx, types.RoleAppellant, nctx.Event()); err == nil {
		cover = res.Template.DocmosisTemplateID
	}
	return o.composer.Compose(ctx, nctx, cover)
}

func (o *Orchestrator) sendPrecompiled(ctx context.Context, nctx Context, letter Letter, attempt int) error {
	req := SendRequest{
		Channel:     types.ChannelLetter,
		Destination: types.Destination{Address: letter.Address},
		Reference:   o.reference(nctx, types.RoleAppellant),
		Attempt:     attempt,
		Precompiled: true,
	}
	pdf := letter.PDF
	sendFn := func(ctx context.Context) (string, error) {
		return o.sender.SendPrecompiledLetter(ctx, pdf, letter.Address, req.Reference)
	}
	sent, err := o.handler.Send(ctx, nctx, req, sendFn)
	if err != nil {
		return err
	}
	if sent && o.correspondence != nil {
		o.correspondence.Enqueue(nctx.CaseID(), pdf, types.CorrespondenceMeta{
			Event:     string(nctx.Event()),
			Channel:   types.ChannelLetter,
			Recipient: letter.RecipientName,
			SentAt:    o.clock.Now(),
		})
	}
	return nil
}

// notifyOldSubscriptions sends a courtesy notification to contact points that
// a subscription update changed or removed, so the previous address learns it
// will no longer be notified. At most one extra send per changed channel per
// role.
func (o *Orchestrator) notifyOldSubscriptions(ctx context.Context, nctx Context) error {
	old := nctx.Old()
	if old == nil {
		return nil
	}

	oldEvent := events.SubscriptionOld
	if nctx.New().LanguageWelsh {
		oldEvent = events.WelshOf(oldEvent)
	}

	for _, role := range types.AllRoles {
		oldSub := old.Subscriptions.ForRole(role)
		if oldSub == nil {
			continue
		}
		newSub := nctx.New().Subscriptions.ForRole(role)

		emailChanged := oldSub.SubscribeEmail && oldSub.Email != "" &&
			(newSub == nil || newSub.Email != oldSub.Email)
		smsChanged := oldSub.SubscribeSMS && oldSub.Mobile != "" &&
			(newSub == nil || newSub.Mobile != oldSub.Mobile)
		if !emailChanged && !smsChanged {
			continue
		}

		res, err := o.Resolve(nctx, role, oldEvent)
		if err != nil {
			o.logger.Warn("no old-subscription template resolved",
				"case_id", nctx.CaseID(),
				"role", string(role),
				"error", err.Error(),
			)
			continue
		}

		if emailChanged && res.Template.EmailTemplateID != "" {
			req := SendRequest{
				Channel:      types.ChannelEmail,
				TemplateID:   res.Template.EmailTemplateID,
				Destination:  types.Destination{Email: oldSub.Email},
				Placeholders: res.Placeholders,
				Reference:    res.Reference,
				Attempt:      1,
			}
			if _, err := o.handler.Send(ctx, nctx.WithEvent(oldEvent), req, o.handler.SendFuncFor(req)); err != nil {
				return err
			}
		}
		if smsChanged {
			for _, smsTemplateID := range res.Template.SmsTemplateIDs {
				req := SendRequest{
					Channel:      types.ChannelSMS,
					TemplateID:   smsTemplateID,
					Destination:  types.Destination{Mobile: oldSub.Mobile},
					Placeholders: res.Placeholders,
					Reference:    res.Reference,
					Attempt:      1,
				}
				if _, err := o.handler.Send(ctx, nctx.WithEvent(oldEvent), req, o.handler.SendFuncFor(req)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ResumeSend re-executes a single channel send recovered from a fired retry
// job. Precompiled letters are recomposed from case data rather than
// serialized with the job.
func (o *Orchestrator) ResumeSend(ctx context.Context, payload []byte) error {
	nctx, req, err := DecodeRetryJob(payload)
	if err != nil {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"malformed retry job payload", err)
	}

	if !req.Precompiled {
		_, err := o.handler.Send(ctx, nctx, req, o.handler.SendFuncFor(req))
		return err
	}

	letters, err := o.composeBundle(ctx, nctx)
	if err != nil {
		return err
	}
	for _, letter := range letters {
		if letter.Address != req.Destination.Address {
			continue
		}
		pdf := letter.PDF
		sendFn := func(ctx context.Context) (string, error) {
			return o.sender.SendPrecompiledLetter(ctx, pdf, letter.Address, req.Reference)
		}
		sent, err := o.handler.Send(ctx, nctx, req, sendFn)
		if err != nil {
			return err
		}
		if sent && o.correspondence != nil {
			o.correspondence.Enqueue(nctx.CaseID(), pdf, types.CorrespondenceMeta{
				Event:     string(nctx.Event()),
				Channel:   types.ChannelLetter,
				Recipient: letter.RecipientName,
				SentAt:    o.clock.Now(),
			})
		}
		return nil
	}
	o.logger.Warn("retry recipient no longer present on case, dropping send",
		"case_id", nctx.CaseID(),
		"event", string(nctx.Event()),
	)
	return nil
}

// Resolve builds the fully resolved notification for one (event, role) pair.
func (o *Orchestrator) Resolve(nctx Context, role types.SubscriptionRole, event events.Type) (Resolved, error) {
	data := nctx.New()
	sub := data.Subscriptions.ForRole(role)

	tmpl, err := o.registry.Resolve(types.TemplateQuery{
		Event:             string(event),
		Role:              role,
		Benefit:           data.Benefit,
		HearingMode:       data.HearingMode,
		Welsh:             data.LanguageWelsh,
		CreatedInGapsFrom: data.CreatedInGapsFrom,
	})
	if err != nil {
		return Resolved{}, err
	}

	dest := types.Destination{Address: RecipientAddress(nctx, role)}
	tya := ""
	if sub != nil {
		dest.Email = sub.Email
		dest.Mobile = sub.Mobile
		tya = sub.TYA
	}

	return Resolved{
		Template:     tmpl,
		Destination:  dest,
		Placeholders: o.placeholders(nctx, role, tya),
		Reference:    o.reference(nctx, role),
		TYA:          tya,
	}, nil
}

func (o *Orchestrator) placeholders(nctx Context, role types.SubscriptionRole, tya string) map[string]string {
	data := nctx.New()
	ph := map[string]string{
		"appeal_ref": data.CaseReference,
		"benefit":    data.Benefit,
	}
	if party := RecipientParty(nctx, role); party != nil {
		ph["name"] = party.Name.FullName()
	}
	if tya != "" {
		ph["tya_number"] = tya
	}
	if h := data.LatestHearing(); h != nil {
		ph["hearing_date"] = h.DateTime.Format("2 January 2006")
		ph["hearing_time"] = h.DateTime.Format("3:04 PM")
		if h.VenueName != "" {
			ph["venue_name"] = h.VenueName
		}
	}
	return ph
}

// reference is the deterministic provider reference for one (case, event,
// role) send, used for provider-side dedup and audit.
func (o *Orchestrator) reference(nctx Context, role types.SubscriptionRole) string {
	return fmt.Sprintf("%s/%s/%s", nctx.CaseID(), nctx.Event(), role)
}

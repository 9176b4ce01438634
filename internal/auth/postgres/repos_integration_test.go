// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

//go:build integration

package postgres_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/inkwell/inkwell/internal/auth"
	authpg "github.com/inkwell/inkwell/internal/auth/postgres"
	"github.com/inkwell/inkwell/pkg/errutil"
)

var _ = Describe("auth repositories", func() {
	var (
		subscribers *authpg.SubscriberRepository
		links       *authpg.MagicLinkRepository
		sessions    *authpg.SessionRepository
		now         time.Time
	)

	BeforeEach(func() {
		truncate()
		subscribers = authpg.NewSubscriberRepository(pool)
		links = authpg.NewMagicLinkRepository(pool)
		sessions = authpg.NewSessionRepository(pool)
		now = time.Now().UTC().Truncate(time.Microsecond)
	})

	newActive := func(email string) *auth.Subscriber {
		sub, err := auth.NewSubscriber(email, "Reader", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(sub.Activate()).To(Succeed())
		Expect(subscribers.Create(suiteCtx, sub)).To(Succeed())
		return sub
	}

	issue := func(email string, at time.Time) (*auth.MagicLink, string) {
		token, hash, err := auth.GenerateLoginToken()
		Expect(err).NotTo(HaveOccurred())
		link, err := auth.NewMagicLink(email, hash, at)
		Expect(err).NotTo(HaveOccurred())
		Expect(links.Issue(suiteCtx, link)).To(Succeed())
		return link, token
	}

	Describe("SubscriberRepository", func() {
		It("round-trips a subscriber by every lookup key", func() {
			sub, err := auth.NewSubscriber("reader@example.com", "Ada", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(subscribers.Create(suiteCtx, sub)).To(Succeed())

			byEmail, err := subscribers.GetByEmail(suiteCtx, "reader@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(sub.ID))
			Expect(byEmail.Status).To(Equal(auth.StatusPending))

			byConfirm, err := subscribers.GetByConfirmToken(suiteCtx, *sub.ConfirmToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(byConfirm.ID).To(Equal(sub.ID))

			byUnsub, err := subscribers.GetByUnsubscribeToken(suiteCtx, sub.UnsubscribeToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(byUnsub.Name).To(Equal("Ada"))
		})

		It("rejects a duplicate email", func() {
			newActive("reader@example.com")
			dup, err := auth.NewSubscriber("reader@example.com", "", now)
			Expect(err).NotTo(HaveOccurred())

			err = subscribers.Create(suiteCtx, dup)
			Expect(err).To(HaveOccurred())
			Expect(errutil.Code(err)).To(Equal("SUBSCRIBER_EXISTS"))
		})

		It("returns ErrNotFound for unknown emails", func() {
			_, err := subscribers.GetByEmail(suiteCtx, "ghost@example.com")
			Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
		})

		It("persists status transitions", func() {
			sub := newActive("reader@example.com")
			Expect(sub.Unsubscribe()).To(Succeed())
			Expect(subscribers.Update(suiteCtx, sub)).To(Succeed())

			got, err := subscribers.GetByEmail(suiteCtx, sub.Email)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(auth.StatusUnsubscribed))
			Expect(got.ConfirmToken).To(BeNil())
		})
	})

	Describe("MagicLinkRepository", func() {
		It("invalidates earlier unused links when issuing a new one", func() {
			first, _ := issue("reader@example.com", now)
			second, _ := issue("reader@example.com", now.Add(time.Minute))

			old, err := links.GetByTokenHash(suiteCtx, first.TokenHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(old.Used).To(BeTrue())

			current, err := links.GetByTokenHash(suiteCtx, second.TokenHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.Used).To(BeFalse())
			Expect(current.ExpiresAt).To(BeTemporally("~", second.ExpiresAt, time.Millisecond))
		})

		It("stores only the digest", func() {
			_, token := issue("reader@example.com", now)

			var n int
			Expect(pool.QueryRow(suiteCtx,
				`SELECT count(*) FROM magic_links WHERE token_hash = $1`, token,
			).Scan(&n)).To(Succeed())
			Expect(n).To(BeZero())

			_, err := links.GetByTokenHash(suiteCtx, auth.HashToken(token))
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets exactly one concurrent claim win", func() {
			link, _ := issue("reader@example.com", now)

			var wins atomic.Int32
			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					err := links.MarkUsed(suiteCtx, link.ID)
					if err == nil {
						wins.Add(1)
						return
					}
					Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
				}()
			}
			wg.Wait()

			Expect(wins.Load()).To(Equal(int32(1)))
		})

		It("deletes only expired links", func() {
			issue("old@example.com", now.Add(-time.Hour))
			issue("fresh@example.com", now)

			n, err := links.DeleteExpired(suiteCtx, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))
		})
	})

	Describe("SessionRepository", func() {
		It("resolves live sessions and ignores expired ones", func() {
			sub := newActive("reader@example.com")
			token, hash, err := auth.GenerateLoginToken()
			Expect(err).NotTo(HaveOccurred())
			session, err := auth.NewSession(sub.ID, hash, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(suiteCtx, session)).To(Succeed())

			got, err := sessions.GetSubscriberByTokenHash(suiteCtx, auth.HashToken(token), now)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Email).To(Equal("reader@example.com"))

			_, err = sessions.GetSubscriberByTokenHash(suiteCtx, hash, now.Add(auth.SessionExpiry+time.Second))
			Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())

			n, err := sessions.DeleteExpired(suiteCtx, now.Add(auth.SessionExpiry+time.Second))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))
		})

		It("removes sessions on logout", func() {
			sub := newActive("reader@example.com")
			_, hash, err := auth.GenerateLoginToken()
			Expect(err).NotTo(HaveOccurred())
			session, err := auth.NewSession(sub.ID, hash, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(suiteCtx, session)).To(Succeed())

			Expect(sessions.DeleteByTokenHash(suiteCtx, hash)).To(Succeed())
			Expect(sessions.DeleteByTokenHash(suiteCtx, hash)).To(Succeed())

			_, err = sessions.GetSubscriberByTokenHash(suiteCtx, hash, now)
			Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
		})
	})
})

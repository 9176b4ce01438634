// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

//go:build integration

package integration

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/subscription"
)

var _ = Describe("Passwordless sign-in", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if env != nil {
			env.cleanup()
		}
	})

	const email = "reader@example.com"

	It("subscribes and confirms a new reader", func() {
		c := env.client()

		status, body := env.call(c, http.MethodPost, "/api/newsletter/subscribe", `{"email":"Reader@Example.com","name":"Ada"}`)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["message"]).To(Equal(subscription.MessagePending))

		token := env.mail.confirmToken(email)
		Expect(token).NotTo(BeEmpty())

		status, body = env.call(c, http.MethodGet, "/api/newsletter/confirm/"+token, "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["message"]).To(Equal(subscription.MessageConfirmed))
	})

	It("gives unknown addresses the same login answer", func() {
		status, body := env.call(env.client(), http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com"}`)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal(map[string]any{"success": true, "message": auth.MessageCheckEmail}))
		Expect(env.mail.loginToken("ghost@example.com")).To(BeEmpty())
	})

	It("signs in with a magic link, reads the session and logs out", func() {
		c := env.client()

		status, _ := env.call(c, http.MethodPost, "/api/auth/login", `{"email":"`+email+`"}`)
		Expect(status).To(Equal(http.StatusOK))
		token := env.mail.loginToken(email)
		Expect(token).NotTo(BeEmpty())

		status, body := env.call(c, http.MethodGet, "/api/auth/verify/"+token, "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["success"]).To(BeTrue())

		status, body = env.call(c, http.MethodGet, "/api/auth/me", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["subscriber"]).To(HaveKeyWithValue("email", email))
		Expect(body["subscriber"]).To(HaveKeyWithValue("name", "Ada"))

		By("refusing to redeem the link twice")
		status, body = env.call(env.client(), http.MethodGet, "/api/auth/verify/"+token, "")
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body["error"]).To(Equal("This link has already been used"))

		status, body = env.call(c, http.MethodPost, "/api/auth/logout", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["message"]).To(Equal(auth.MessageLoggedOut))

		status, body = env.call(c, http.MethodGet, "/api/auth/me", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["subscriber"]).To(BeNil())
	})

	It("invalidates the previous link when a new one is requested", func() {
		c := env.client()

		env.call(c, http.MethodPost, "/api/auth/login", `{"email":"`+email+`"}`)
		first := env.mail.loginToken(email)
		env.call(c, http.MethodPost, "/api/auth/login", `{"email":"`+email+`"}`)
		second := env.mail.loginToken(email)
		Expect(second).NotTo(Equal(first))

		status, _ := env.call(c, http.MethodGet, "/api/auth/verify/"+first, "")
		Expect(status).To(Equal(http.StatusBadRequest))

		status, _ = env.call(c, http.MethodGet, "/api/auth/verify/"+second, "")
		Expect(status).To(Equal(http.StatusOK))
	})

	It("toggles likes for signed-in readers only", func() {
		env.publish("01JNEWSLETTER00000000000001", "first-issue")
		c := env.client()
		env.call(c, http.MethodPost, "/api/auth/login", `{"email":"`+email+`"}`)
		status, _ := env.call(c, http.MethodGet, "/api/auth/verify/"+env.mail.loginToken(email), "")
		Expect(status).To(Equal(http.StatusOK))

		status, _ = env.call(env.client(), http.MethodPost, "/api/newsletter/first-issue/likes", "")
		Expect(status).To(Equal(http.StatusUnauthorized))

		status, body := env.call(c, http.MethodPost, "/api/newsletter/first-issue/likes", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal(map[string]any{"liked": true, "count": float64(1)}))

		status, body = env.call(env.client(), http.MethodGet, "/api/newsletter/first-issue/likes", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal(map[string]any{"count": float64(1), "userHasLiked": false}))
	})

	It("sweeps nothing live", func() {
		res, err := env.sessions.CleanupExpired(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Sessions).To(BeZero())
	})
})

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/medlink/medlink/internal/config"
	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/hospital"
	"github.com/medlink/medlink/internal/domain/identity"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/db"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample hospitals, an admin account and one doctor per hospital",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, identity.NewUserRepoPG(pool),
				hospital.NewHospitalRepoPG(pool), doctor.NewDoctorRepoPG(pool))
		},
	}
}

type seedHospital struct {
	name  string
	city  string
	state string
	zip   string
	lat   float64
	lng   float64
}

var sampleHospitals = []seedHospital{
	{"Apollo Hospital", "Mumbai", "MH", "400001", 19.0760, 72.8777},
	{"AIIMS", "New Delhi", "DL", "110029", 28.6139, 77.2090},
	{"Fortis Hospital", "Bangalore", "KA", "560076", 12.9716, 77.5946},
	{"City General Hospital", "New York", "NY", "10001", 40.7128, -74.006},
	{"Westside Medical Center", "Los Angeles", "CA", "90001", 34.0522, -118.2437},
}

// runSeed is idempotent: rows that already exist are left alone, so the
// command can be re-run after partial failures.
func runSeed(ctx context.Context, users identity.UserRepository, hospitals hospital.HospitalRepository, doctors doctor.DoctorRepository) error {
	hospitalSvc := hospital.NewService(hospitals)
	doctorSvc := doctor.NewService(doctors)
	created := make([]*hospital.Hospital, 0, len(sampleHospitals))

	for _, sh := range sampleHospitals {
		h, err := hospitals.GetByName(ctx, sh.name)
		if err == nil {
			fmt.Printf("hospital exists: %s\n", sh.name)
			created = append(created, h)
			continue
		}
		if !errors.Is(err, hospital.ErrHospitalNotFound) {
			return err
		}

		street := "123 Health Ave"
		email := fmt.Sprintf("contact@%s.com", strings.ReplaceAll(strings.ToLower(sh.name), " ", ""))
		totalBeds := 500
		availableBeds := 150
		h = &hospital.Hospital{
			Name:          sh.name,
			AddressStreet: &street,
			AddressCity:   &sh.city,
			AddressState:  &sh.state,
			AddressZip:    &sh.zip,
			Country:       "IN",
			Latitude:      sh.lat,
			Longitude:     sh.lng,
			Phone:         "+91-98765-43210",
			Email:         &email,
			Departments:   []string{"Cardiology", "Neurology", "Pediatrics", "Orthopedics"},
			TotalBeds:     &totalBeds,
			AvailableBeds: &availableBeds,
		}
		if err := hospitalSvc.CreateHospital(ctx, h); err != nil {
			return fmt.Errorf("failed to create hospital %s: %w", sh.name, err)
		}
		fmt.Printf("hospital created: %s\n", sh.name)
		created = append(created, h)
	}

	if _, err := seedUser(ctx, users, "Super Admin", "admin@medlink.com", "adminpassword123", auth.RoleAdmin); err != nil {
		return err
	}

	for i, h := range created {
		city := strings.ReplaceAll(strings.ToLower(*h.AddressCity), " ", "")
		email := fmt.Sprintf("dr.%s@medlink.com", city)
		u, err := seedUser(ctx, users, "Dr. of "+*h.AddressCity, email, "doctorpassword123", auth.RoleDoctor)
		if err != nil {
			return err
		}

		if _, err := doctors.GetByUserID(ctx, u.ID); err == nil {
			continue
		} else if !errors.Is(err, doctor.ErrDoctorNotFound) {
			return err
		}

		hospitalID := h.ID
		d := &doctor.Doctor{
			UserID:          u.ID,
			Specialization:  "Cardiology",
			Qualifications:  []string{"MBBS", "MD"},
			ExperienceYears: 10,
			HospitalID:      &hospitalID,
			ConsultationFee: 500,
			Availability: []doctor.DayAvailability{
				{Day: "Monday", Slots: []doctor.TimeSlot{{StartTime: "09:00", EndTime: "12:00"}}},
			},
			LicenseNumber: fmt.Sprintf("MD%05d", 10000+i),
			Verified:      true,
		}
		if err := doctorSvc.CreateDoctor(ctx, d); err != nil {
			return fmt.Errorf("failed to create doctor for %s: %w", h.Name, err)
		}
		fmt.Printf("doctor created for: %s\n", h.Name)
	}

	fmt.Println("database seeded successfully")
	return nil
}

func seedUser(ctx context.Context, users identity.UserRepository, name, email, password string, role auth.Role) (*identity.User, error) {
	u, err := users.GetByEmail(ctx, email)
	if err == nil {
		fmt.Printf("user exists: %s\n", email)
		return u, nil
	}
	if !errors.Is(err, identity.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u = &identity.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	fmt.Printf("user created: %s\n", email)
	return u, nil
}
